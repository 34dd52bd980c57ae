// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Hdrsave uploads interval histogram logs to a perfstore server.
//
// Usage:
//
//	hdrsave [-v] [-server url] [-format name] -job id -operation name file...
//
// Each input file should contain an interval histogram log recorded
// by one client of a load test job. Hdrsave uploads the files as
// outputs of the given operation and prints the IDs the server
// assigned to them, one per line.
//
// If the HDRSAVE_TOKEN environment variable is set, it is sent as an
// OAuth2 bearer token.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

var (
	server    = flag.String("server", "http://localhost:8080", "upload logs to server at `url`")
	verbose   = flag.Bool("v", false, "print verbose log messages")
	jobID     = flag.Int64("job", 0, "upload logs as outputs of job `id`")
	operation = flag.String("operation", "", "operation `name` measured by the logs")
	format    = flag.String("format", "", "store logs in compression `format`: RAW, ZIP, LZ4 or ZSTD (default: server setting)")
)

type uploadStatus struct {
	// OutputIDs are the IDs assigned to the uploaded files.
	OutputIDs []int64 `json:"outputIDs"`
}

// writeOneFile reads name and writes it to mpw.
func writeOneFile(mpw *multipart.Writer, name string) error {
	w, err := mpw.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return err
	}
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}

// upload streams files to the server as outputs of job.
func upload(ctx context.Context, hc *http.Client, server string, job int64, operation, format string, files []string) (*uploadStatus, error) {
	pr, pw := io.Pipe()
	mpw := multipart.NewWriter(pw)

	go func() {
		defer pw.Close()
		defer mpw.Close()

		mpw.WriteField("operation", operation)
		if format != "" {
			mpw.WriteField("format", format)
		}
		for _, name := range files {
			if err := writeOneFile(mpw, name); err != nil {
				log.Print(err)
				// The server rejects unknown fields, so this
				// fails the whole upload.
				mpw.WriteField("abort", "1")
				return
			}
		}
	}()

	url := fmt.Sprintf("%s/jobs/%d/outputs", server, job)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	resp, err := hc.Do(req)
	if err != nil {
		pr.Close()
		return nil, errors.Wrap(err, "upload failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.Errorf("upload failed: %v: %s", resp.Status, body)
	}

	status := &uploadStatus{}
	if err := json.NewDecoder(resp.Body).Decode(status); err != nil {
		return nil, errors.Wrap(err, "cannot parse upload response")
	}
	return status, nil
}

// client returns an HTTP client that authenticates with token, if
// set.
func client(ctx context.Context, token string) *http.Client {
	if token == "" {
		return http.DefaultClient
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage of hdrsave:
	hdrsave [flags] -job id -operation name file...
`)
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetPrefix("hdrsave: ")
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		log.Fatal("no files to upload")
	}
	if *jobID <= 0 || *operation == "" {
		flag.Usage()
	}

	ctx := context.Background()
	start := time.Now()
	status, err := upload(ctx, client(ctx, os.Getenv("HDRSAVE_TOKEN")), *server, *jobID, *operation, *format, files)
	if err != nil {
		log.Fatal(err)
	}

	if *verbose {
		s := ""
		if len(files) != 1 {
			s = "s"
		}
		log.Printf("%d file%s uploaded in %.2f seconds.\n", len(files), s, time.Since(start).Seconds())
	}
	for _, id := range status.OutputIDs {
		fmt.Println(id)
	}
}
