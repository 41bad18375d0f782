package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"sort"
	"strings"

	"github.com/google/go-querystring/query"
	apperrors "github.com/jrsteele09/go-seller-client/internal/errors"
)

// File is one file part of a multipart payload.
type File struct {
	FieldName   string
	FileName    string
	ContentType string // defaults to application/octet-stream
	Content     io.Reader
}

// Multipart is a form payload. Sending one switches the request to
// multipart/form-data whatever the default content type is.
type Multipart struct {
	Fields map[string]string
	Files  []File
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (m *Multipart) encode() (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	names := make([]string, 0, len(m.Fields))
	for name := range m.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := mw.WriteField(name, m.Fields[name]); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}

	for _, f := range m.Files {
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(f.FieldName), quoteEscaper.Replace(f.FileName)))
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create part %s: %w", f.FieldName, err)
		}
		if f.Content != nil {
			if _, err := io.Copy(part, f.Content); err != nil {
				return nil, "", fmt.Errorf("failed to copy file %s: %w", f.FileName, err)
			}
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}

// encodeQuery turns a GET payload into query parameters. Structs use `url`
// tags, see github.com/google/go-querystring.
func encodeQuery(payload any) (url.Values, error) {
	switch v := payload.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return v, nil
	case map[string]string:
		values := url.Values{}
		for k, s := range v {
			values.Set(k, s)
		}
		return values, nil
	case map[string]any:
		values := url.Values{}
		for k, item := range v {
			if item == nil {
				continue
			}
			values.Set(k, fmt.Sprint(item))
		}
		return values, nil
	default:
		values, err := query.Values(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidPayload, err)
		}
		return values, nil
	}
}

// encodeBody returns the request body and, for multipart payloads, the
// content type that must replace the default one.
func encodeBody(payload any) (io.Reader, string, error) {
	switch v := payload.(type) {
	case nil:
		return nil, "", nil
	case *Multipart:
		if v == nil {
			return nil, "", nil
		}
		return v.encode()
	case Multipart:
		return v.encode()
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", apperrors.ErrInvalidPayload, err)
	}
	return bytes.NewReader(b), "", nil
}
