package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// Result is the outcome of a RobustUpload call. On a non-retriable HTTP
// failure Response is populated so the caller can inspect status and
// headers; the caller owns closing Response.Body when it is non-nil.
type Result struct {
	Success  bool
	Response *http.Response
	Err      *Error
}

// RobustUpload PUTs payload to url with bounded retries. Any non-2xx
// response is fed through the same classification path as transport errors,
// except that a non-retriable HTTP failure is returned in the Result rather
// than raised, letting the caller inspect the response.
//
// A nil client defaults to http.DefaultClient; a zero cfg is replaced by
// StorageConfig.
func RobustUpload(ctx context.Context, client *http.Client, url string, payload []byte, headers map[string]string, cfg Config) Result {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg == (Config{}) {
		cfg = StorageConfig()
	}

	var resp *http.Response
	err := WithRetry(ctx, cfg, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
		if err != nil {
			return &Error{Kind: KindUnknown, Message: err.Error(), Retriable: false, Cause: err}
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		r, err := client.Do(req)
		if err != nil {
			return Classify(err, nil)
		}

		if r.StatusCode >= 200 && r.StatusCode < 300 {
			resp = r
			return nil
		}

		classified := Classify(fmt.Errorf("upload failed with status %d", r.StatusCode), r)
		if classified.Retriable {
			// The attempt will be repeated; release the connection.
			_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, 4096))
			_ = r.Body.Close()
			return classified
		}

		// Hold the response so the caller can inspect it.
		resp = r
		return classified
	}, nil)

	if err == nil {
		return Result{Success: true, Response: resp}
	}

	classified := Classify(err, nil)
	if !classified.Retriable && resp != nil {
		return Result{Success: false, Response: resp, Err: classified}
	}
	return Result{Success: false, Err: classified}
}
