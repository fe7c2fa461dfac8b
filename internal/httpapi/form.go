package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"

	"blog/backend/internal/blog"
	"blog/backend/internal/content"
	"blog/backend/internal/outcome"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling files to disk.
const multipartMemory = 8 << 20

// errBodyTooLarge is returned when a body exceeds Config.MaxUploadBytes.
var errBodyTooLarge = errors.New("request body too large")

// readErr reports an oversized body as errBodyTooLarge and anything else as a
// validation failure on the body.
func readErr(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errBodyTooLarge
	}
	return outcome.Invalid(outcome.FieldError{Field: "body", Message: "Body could not be read."})
}

// removeForm deletes temporary files a multipart parse spilled to disk.
// Handlers defer it on the request they parsed, since the server only cleans up
// the form of the request it created.
func removeForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// fields decodes a form, multipart or flat JSON object body into values.
func (s *Server) fields(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		raw := map[string]any{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, errBodyTooLarge
			}
			return nil, outcome.Invalid(outcome.FieldError{Field: "body", Message: "Body should be a JSON object."})
		}
		vals := url.Values{}
		for k, v := range raw {
			switch v := v.(type) {
			case string:
				vals.Set(k, v)
			case bool, float64:
				vals.Set(k, fmt.Sprint(v))
			}
		}
		return vals, nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, readErr(err)
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, readErr(err)
		}
	}
	return r.PostForm, nil
}

// postInput reads the four block slots and any header image files.
func (s *Server) postInput(w http.ResponseWriter, r *http.Request) (blog.PostInput, error) {
	vals, err := s.fields(w, r)
	if err != nil {
		return blog.PostInput{}, err
	}

	in := blog.PostInput{
		Blocks:  make([]content.RawBlock, content.MaxBlocks),
		Uploads: content.Uploads{},
	}
	for slot := 1; slot <= content.MaxBlocks; slot++ {
		in.Blocks[slot-1] = content.RawBlock{
			Title:          vals.Get(fmt.Sprintf("title%d", slot)),
			Body:           vals.Get(fmt.Sprintf("body%d", slot)),
			HeaderImageURL: vals.Get(fmt.Sprintf("headerImg%d", slot)),
		}
		if r.MultipartForm == nil {
			continue
		}
		files := r.MultipartForm.File[fmt.Sprintf("headerImg%d", slot)]
		if len(files) == 0 {
			continue
		}
		upload, err := readUpload(files[0])
		if err != nil {
			return blog.PostInput{}, fmt.Errorf("read header image %d: %w", slot, err)
		}
		in.Uploads[slot] = upload
	}
	return in, nil
}

func readUpload(fh *multipart.FileHeader) (content.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return content.Upload{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return content.Upload{}, err
	}
	// Trust the bytes rather than the client's declared type.
	return content.Upload{Data: data, ContentType: http.DetectContentType(data)}, nil
}
