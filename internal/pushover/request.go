// Package pushover validates and delivers Pushover message requests.
//
// A Request is checked field by field against the provider's limits in a fixed
// order; the first violation is returned as a *ValidationError. A valid
// Request becomes a Payload that Client.Send posts to the messages API.
package pushover

import (
	"io"
	"net/url"
	"strconv"
	"time"
)

// Request is a candidate message. Nil optional fields are omitted.
type Request struct {
	Token   string // application token
	User    string // user or group key
	Message string

	Attachment *Attachment
	Device     *string
	HTML       *int
	Monospace  *int
	Priority   *int
	Sound      *string
	Timestamp  *int64
	Title      *string
	TTL        *int
	URL        *string
	URLTitle   *string
}

// Attachment is an image sent alongside the message. Data must be seekable so
// its size can be measured without consuming it.
type Attachment struct {
	Filename    string
	Data        io.ReadSeeker
	ContentType string
}

// Payload is a validated request ready for dispatch.
type Payload struct {
	Fields     map[string]string
	Attachment *Attachment
}

// Values returns the form fields of p.
func (p *Payload) Values() url.Values {
	v := make(url.Values, len(p.Fields))
	for k, val := range p.Fields {
		v.Set(k, val)
	}
	return v
}

// Validate checks r against every rule in order and, on success, flattens it
// into a Payload. The attachment stream is left at its original position.
func (r *Request) Validate(now time.Time) (*Payload, error) {
	for _, rule := range rules {
		if err := rule.check(r, now); err != nil {
			return nil, err
		}
	}
	return r.payload(), nil
}

func (r *Request) payload() *Payload {
	fields := map[string]string{
		"token":   r.Token,
		"user":    r.User,
		"message": r.Message,
	}
	setString := func(key string, v *string) {
		if v != nil {
			fields[key] = *v
		}
	}
	setInt := func(key string, v *int) {
		if v != nil {
			fields[key] = strconv.Itoa(*v)
		}
	}

	setString("device", r.Device)
	setInt("html", r.HTML)
	setInt("monospace", r.Monospace)
	setInt("priority", r.Priority)
	setString("sound", r.Sound)
	if r.Timestamp != nil {
		fields["timestamp"] = strconv.FormatInt(*r.Timestamp, 10)
	}
	setString("title", r.Title)
	setInt("ttl", r.TTL)
	setString("url", r.URL)
	setString("url_title", r.URLTitle)

	return &Payload{Fields: fields, Attachment: r.Attachment}
}

// String and Int return pointers for populating optional fields.
func String(s string) *string { return &s }

func Int(i int) *int { return &i }

func Int64(i int64) *int64 { return &i }
