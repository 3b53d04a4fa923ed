package pushover

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Send(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":1,"request":"647d2300-702c-4b38-8b2f-d56326ae460b"}`)
	}))
	defer srv.Close()

	r := validRequest()
	r.Priority = Int(1)
	p, err := r.Validate(testNow)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	id, err := NewClient(srv.URL).Send(context.Background(), p)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if id != "647d2300-702c-4b38-8b2f-d56326ae460b" {
		t.Errorf("unexpected request id %q", id)
	}
	if gotForm["token"] != testToken || gotForm["priority"] != "1" || gotForm["message"] != "testing" {
		t.Errorf("unexpected form: %v", gotForm)
	}
}

func TestClient_SendAttachment(t *testing.T) {
	var gotFile []byte
	var gotType, gotName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		f, hdr, err := r.FormFile("attachment")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer f.Close()
		gotFile, _ = io.ReadAll(f)
		gotType = hdr.Header.Get("Content-Type")
		gotName = r.FormValue("message")
		io.WriteString(w, `{"status":1,"request":"abc"}`)
	}))
	defer srv.Close()

	r := validRequest()
	r.Attachment = &Attachment{Filename: "image.png", Data: bytes.NewReader([]byte("png-bytes")), ContentType: "image/png"}
	p, err := r.Validate(testNow)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if _, err := NewClient(srv.URL).Send(context.Background(), p); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if string(gotFile) != "png-bytes" {
		t.Errorf("unexpected file body %q", gotFile)
	}
	if gotType != "image/png" {
		t.Errorf("unexpected content type %q", gotType)
	}
	if gotName != "testing" {
		t.Errorf("expected message field alongside attachment, got %q", gotName)
	}
}

func TestClient_SendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"user":"invalid","errors":["user identifier is invalid"],"status":0,"request":"r1"}`)
	}))
	defer srv.Close()

	p, _ := validRequest().Validate(testNow)
	_, err := NewClient(srv.URL).Send(context.Background(), p)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", apiErr.StatusCode)
	}
	if len(apiErr.Errors) != 1 || apiErr.Errors[0] != "user identifier is invalid" {
		t.Errorf("unexpected errors %v", apiErr.Errors)
	}
}

func TestClient_SendStatusZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":0,"errors":["application token is invalid"]}`)
	}))
	defer srv.Close()

	p, _ := validRequest().Validate(testNow)
	_, err := NewClient(srv.URL).Send(context.Background(), p)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
}

func TestClient_SendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, _ := validRequest().Validate(testNow)
	_, err := NewClient(srv.URL).Send(context.Background(), p)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 APIError, got %v", err)
	}
}
