// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rainfall/perfstore/hdrlog"
	"github.com/rainfall/perfstore/payload"
	"github.com/rainfall/perfstore/storage/db"
)

// maxLogSize is the largest accepted uncompressed log.
const maxLogSize = 256 << 20

// upload is the handler for POST /jobs/{id}/outputs. The request is a
// multipart/form-data body with a field "operation", an optional field
// "format" naming the compression format, and one or more "file" parts
// holding interval histogram logs. Fields apply to the files that
// follow them.
func (a *App) upload(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	job, err := a.DB.Job(r.Context(), jobID)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	// We use r.MultipartReader instead of r.ParseForm to avoid
	// holding more than one log in memory.
	mr, err := r.MultipartReader()
	if err != nil {
		a.fail(w, r, badRequest("%v", err))
		return
	}

	result, err := a.processUpload(r.Context(), job, mr)
	a.reply(w, r, result, err)
}

// uploadStatus is the response to an upload.
type uploadStatus struct {
	// OutputIDs are the IDs assigned to the uploaded files, in
	// order.
	OutputIDs []int64 `json:"outputIDs"`
}

// processUpload takes one or more files from a multipart.Reader,
// writes them to the filesystem, and indexes them.
func (a *App) processUpload(ctx context.Context, job *db.Job, mr *multipart.Reader) (*uploadStatus, error) {
	var status uploadStatus
	var operation string
	format := a.Format

	// Outputs stored before a failing part stay indexed, so the
	// cached summaries are stale even when the upload fails.
	defer func() {
		if len(status.OutputIDs) > 0 {
			a.invalidateRun(job.RunID)
		}
	}()

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, badRequest("%v", err)
		}

		switch name := p.FormName(); name {
		case "operation":
			if operation, err = readField(p); err != nil {
				return nil, err
			}
		case "format":
			f, err := readField(p)
			if err != nil {
				return nil, err
			}
			if format, err = payload.ParseFormat(f); err != nil {
				return nil, badRequest("%v", err)
			}
		case "file":
			if operation == "" {
				return nil, badRequest("file part before operation field")
			}
			id, err := a.storeOutput(ctx, job, operation, format, p)
			if err != nil {
				return nil, err
			}
			status.OutputIDs = append(status.OutputIDs, id)
		default:
			return nil, badRequest("unexpected field %q", name)
		}
	}
	if len(status.OutputIDs) == 0 {
		return nil, badRequest("no file uploaded")
	}
	return &status, nil
}

func readField(p *multipart.Part) (string, error) {
	b, err := io.ReadAll(io.LimitReader(p, 1024))
	if err != nil {
		return "", badRequest("%v", err)
	}
	return string(b), nil
}

// storeOutput compresses the log in r, writes it to the filesystem
// and records it as an output of job.
func (a *App) storeOutput(ctx context.Context, job *db.Job, operation string, format payload.Format, r io.Reader) (int64, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxLogSize+1))
	if err != nil {
		return 0, errors.Wrap(err, "reading upload")
	}
	if len(data) > maxLogSize {
		return 0, badRequest("log larger than %d bytes", maxLogSize)
	}
	// Reject anything the summaries could not read later.
	hs, err := hdrlog.ReadAll(hdrlog.BytesSource(data))
	if err != nil {
		return 0, badRequest("invalid histogram log: %v", err)
	}
	if len(hs) == 0 {
		// A blank log cannot be aggregated with the other logs
		// of its run.
		return 0, badRequest("histogram log has no intervals")
	}

	codec, err := payload.ServiceFor(format)
	if err != nil {
		return 0, badRequest("%v", err)
	}
	pl, err := codec.Compress(data)
	if err != nil {
		return 0, err
	}

	meta := fileMetadata(job, operation, format, len(hs))
	name := fmt.Sprintf("outputs/%d/%s.hlog", job.ID, uuid.New())
	fw, err := a.FS.NewWriter(ctx, name, meta)
	if err != nil {
		return 0, err
	}
	if _, err := fw.Write(pl.Data); err != nil {
		fw.CloseWithError(err)
		return 0, errors.Wrapf(err, "writing %s", name)
	}
	if err := fw.Close(); err != nil {
		return 0, errors.Wrapf(err, "writing %s", name)
	}

	return a.DB.AddOutput(ctx, job.ID, db.Output{
		Operation: operation,
		Format:    pl.Format,
		Name:      name,
		Length:    pl.OriginalLength,
	})
}

// fileMetadata returns the extra metadata fields associated with an
// uploaded file.
func fileMetadata(job *db.Job, operation string, format payload.Format, intervals int) map[string]string {
	return map[string]string{
		"runid":     strconv.FormatInt(job.RunID, 10),
		"jobid":     strconv.FormatInt(job.ID, 10),
		"operation": operation,
		"format":    format.String(),
		"intervals": strconv.Itoa(intervals),
	}
}
