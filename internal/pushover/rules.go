package pushover

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	MaxMessageLen    = 1024
	MaxTitleLen      = 250
	MaxURLLen        = 512
	MaxURLTitleLen   = 512
	MaxAttachmentLen = 5 * 1024 * 1024
	MaxFilenameLen   = 32
	MaxTTL           = 31536000  // one year
	MaxTimestampSkew = 157680000 // five years

	URLScheme = "https://"
)

var (
	deviceRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,25}$`)

	AttachmentTypes = []string{"image/jpeg", "image/png"}

	// Sounds are the built-in notification sounds, plus "none" for silence.
	Sounds = []string{
		"pushover", "bike", "bugle", "cashregister", "classical", "cosmic",
		"falling", "gamelan", "incoming", "intermission", "magic", "mechanical",
		"pianobar", "siren", "spacealarm", "tugboat", "alien", "climb",
		"persistent", "echo", "updown", "vibrate", "none",
	}
)

// Field tags. String lengths are counted in runes.
const (
	credentialTags = "required,len=30,lowercase,alphanum"
	deviceTags     = "pushover_device"
	flagTags       = "min=0,max=1"
	priorityTags   = "min=-2,max=2"
	timestampTags  = "min=0,ltfield"
)

var (
	messageTags        = fmt.Sprintf("min=1,max=%d", MaxMessageLen)
	filenameTags       = fmt.Sprintf("min=2,max=%d", MaxFilenameLen-1)
	attachmentSizeTags = fmt.Sprintf("max=%d", MaxAttachmentLen)
	attachmentTypeTags = "oneof=" + strings.Join(AttachmentTypes, " ")
	soundTags          = "oneof=" + strings.Join(Sounds, " ")
	titleTags          = fmt.Sprintf("min=1,max=%d", MaxTitleLen)
	ttlTags            = fmt.Sprintf("min=1,max=%d", MaxTTL)
	urlTags            = fmt.Sprintf("min=%d,max=%d,startswith=%s", len(URLScheme)+1, MaxURLLen, URLScheme)
	urlTitleTags       = fmt.Sprintf("min=1,max=%d", MaxURLTitleLen)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation("pushover_device", func(fl validator.FieldLevel) bool {
		return deviceRe.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
	return v
}

type rule struct {
	name  string
	check func(r *Request, now time.Time) error
}

// rules are evaluated in this order; the first failure wins.
var rules = []rule{
	{"credentials", checkCredentials},
	{"message", checkMessage},
	{"attachment", checkAttachment},
	{"device", checkDevice},
	{"rendering", checkRendering},
	{"sound", checkSound},
	{"timestamp", checkTimestamp},
	{"title", checkTitle},
	{"ttl", checkTTL},
	{"url", checkURL},
	{"url_title", checkURLTitle},
}

// CheckCredential validates an application token or user key.
func CheckCredential(field, value string) error {
	return checkVar(field, value, credentialTags)
}

func checkCredentials(r *Request, _ time.Time) error {
	if err := CheckCredential("token", r.Token); err != nil {
		return err
	}
	return CheckCredential("user", r.User)
}

func checkMessage(r *Request, _ time.Time) error {
	return checkVar("message", r.Message, messageTags)
}

func checkAttachment(r *Request, _ time.Time) error {
	a := r.Attachment
	if a == nil {
		return nil
	}

	if err := checkVar("attachment", a.Filename, filenameTags); err != nil {
		return err
	}
	if a.Data == nil {
		return invalid("attachment", ErrMissing, "no file data")
	}

	size, err := streamSize(a.Data)
	if err != nil {
		return invalid("attachment", ErrMalformed, "file data not seekable: %v", err)
	}
	if err := checkVar("attachment", size, attachmentSizeTags); err != nil {
		return err
	}

	return checkVar("attachment", a.ContentType, attachmentTypeTags)
}

// streamSize returns the offset of the end of s, which is its total size, and
// restores its position.
func streamSize(s io.Seeker) (int64, error) {
	pos, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	size, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.Seek(pos, io.SeekStart); err != nil {
		return 0, err
	}
	return size, nil
}

func checkDevice(r *Request, _ time.Time) error {
	if r.Device == nil {
		return nil
	}
	return checkVar("device", *r.Device, deviceTags)
}

func checkRendering(r *Request, _ time.Time) error {
	if err := checkInt("html", r.HTML, flagTags); err != nil {
		return err
	}
	if err := checkInt("monospace", r.Monospace, flagTags); err != nil {
		return err
	}
	if err := checkInt("priority", r.Priority, priorityTags); err != nil {
		return err
	}
	if r.HTML != nil && r.Monospace != nil && *r.HTML == 1 && *r.Monospace == 1 {
		return invalid("html", ErrConflict, "html and monospace cannot both be 1")
	}
	return nil
}

func checkSound(r *Request, _ time.Time) error {
	if r.Sound == nil {
		return nil
	}
	return checkVar("sound", *r.Sound, soundTags)
}

func checkTimestamp(r *Request, now time.Time) error {
	if r.Timestamp == nil {
		return nil
	}
	limit := now.Unix() + MaxTimestampSkew
	return fieldError("timestamp", validate.VarWithValue(*r.Timestamp, limit, timestampTags))
}

func checkTitle(r *Request, _ time.Time) error {
	if r.Title == nil {
		return nil
	}
	return checkVar("title", *r.Title, titleTags)
}

func checkTTL(r *Request, _ time.Time) error {
	return checkInt("ttl", r.TTL, ttlTags)
}

func checkURL(r *Request, _ time.Time) error {
	if r.URL == nil {
		return nil
	}
	return checkVar("url", *r.URL, urlTags)
}

func checkURLTitle(r *Request, _ time.Time) error {
	if r.URLTitle == nil {
		return nil
	}
	if r.URL == nil {
		return invalid("url_title", ErrConflict, "passed without a url")
	}
	return checkVar("url_title", *r.URLTitle, urlTitleTags)
}

func checkVar(field string, v any, tags string) error {
	return fieldError(field, validate.Var(v, tags))
}

func checkInt(field string, v *int, tags string) error {
	if v == nil {
		return nil
	}
	return checkVar(field, *v, tags)
}

// fieldError turns the first failed tag of err into a *ValidationError.
func fieldError(field string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalid(field, ErrMalformed, "%v", err)
	}
	fe := verrs[0]
	return invalid(field, tagKind(fe.Tag()), "%s", describe(fe))
}

func tagKind(tag string) error {
	switch tag {
	case "required":
		return ErrMissing
	case "min", "max", "ltfield":
		return ErrOutOfRange
	case "oneof":
		return ErrNotAllowed
	default:
		return ErrMalformed
	}
}

func describe(fe validator.FieldError) string {
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}

	switch fe.Tag() {
	case "required":
		return "required"
	case "len":
		return "must be exactly " + fe.Param() + unit
	case "lowercase", "alphanum":
		return "only a-z and 0-9 are allowed"
	case "min":
		return "must be at least " + fe.Param() + unit
	case "max":
		return "must be at most " + fe.Param() + unit
	case "startswith":
		return "must start with " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "ltfield":
		return "cannot be five years or more in the future"
	case "pushover_device":
		return "must be 1 to 25 characters, only letters, numbers, underscores and hyphens"
	default:
		return "failed " + fe.Tag()
	}
}
