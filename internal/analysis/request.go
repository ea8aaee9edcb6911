package analysis

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
)

// Multipart field names expected by the analysis backend.
const (
	FieldDisplacement = "dat_file"
	FieldPosition     = "inp_file"
)

// ErrIncompleteRequest is returned when a request is built without both files.
var ErrIncompleteRequest = errors.New("both displacement and position files are required")

// File is one captured upload: the original filename and its exact bytes.
type File struct {
	Name string
	Data []byte
}

// SubmissionRequest carries the two files of one analysis submission.
type SubmissionRequest struct {
	displacement File
	position     File
}

// NewSubmissionRequest builds a request from the displacement (.dat) and
// position (.inp) files. Both are required.
func NewSubmissionRequest(displacement, position *File) (*SubmissionRequest, error) {
	if displacement == nil || position == nil {
		return nil, ErrIncompleteRequest
	}
	return &SubmissionRequest{
		displacement: *displacement,
		position:     *position,
	}, nil
}

// Displacement returns the dat_file part.
func (r *SubmissionRequest) Displacement() File { return r.displacement }

// Position returns the inp_file part.
func (r *SubmissionRequest) Position() File { return r.position }

// Encode writes the request as a multipart/form-data body and returns the
// matching Content-Type header value.
func (r *SubmissionRequest) Encode() (*bytes.Buffer, string, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	parts := []struct {
		field string
		file  File
	}{
		{FieldDisplacement, r.displacement},
		{FieldPosition, r.position},
	}
	for _, p := range parts {
		w, err := writer.CreateFormFile(p.field, p.file.Name)
		if err != nil {
			return nil, "", fmt.Errorf("creating %s part: %w", p.field, err)
		}
		if _, err := w.Write(p.file.Data); err != nil {
			return nil, "", fmt.Errorf("writing %s part: %w", p.field, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}
