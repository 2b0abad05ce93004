// Package relay rewrites outgoing encrypted messages whose plaintext inner
// payload is a bare image URL into inline file-transfer messages. It is a
// per-message transform with no room state access, and it fails open: on any
// error the original payload is forwarded untouched.
package relay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Absolute http(s) URL whose path ends in a known image extension.
var imageURLPattern = regexp.MustCompile(`(?i)^https?://.+\.(jpg|jpeg|png|gif|webp|bmp|svg)$`)

const fileTransferType = "SEND_FILE"

type Relay struct {
	fetcher ResourceFetcher
	timeout time.Duration
	now     func() time.Time
}

func New(fetcher ResourceFetcher, timeout time.Duration) *Relay {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Relay{fetcher: fetcher, timeout: timeout, now: time.Now}
}

type filePayload struct {
	EncodedFile string `json:"encodedFile"`
	FileName    string `json:"fileName"`
	FileType    string `json:"fileType"`
	Timestamp   int64  `json:"timestamp"`
}

// Process returns the payload to forward: the file-transfer rewrite when the
// inner payload is a fetchable image URL, the original payload in every other
// case. It never fails and never blocks delivery on enrichment errors.
func (r *Relay) Process(ctx context.Context, payload json.RawMessage) json.RawMessage {
	rewritten, err := r.rewrite(ctx, payload)
	if err != nil {
		slog.Debug("relay rewrite skipped", "err", err)
		return payload
	}
	if rewritten == nil {
		return payload
	}
	return rewritten
}

// rewrite returns (nil, nil) when the payload is not an image-URL message,
// and an error when a rewrite was attempted but could not complete.
func (r *Relay) rewrite(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, nil // opaque, not an object
	}
	rawInner, ok := fields["payload"]
	if !ok {
		return nil, nil
	}
	var inner string
	if err := json.Unmarshal(rawInner, &inner); err != nil {
		return nil, nil // inner payload is not a string
	}

	imageURL := strings.TrimSpace(inner)
	if !imageURLPattern.MatchString(imageURL) {
		return nil, nil
	}

	fctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	body, err := r.fetcher.Fetch(fctx, imageURL)
	if err != nil {
		return nil, err
	}

	file := filePayload{
		EncodedFile: base64.StdEncoding.EncodeToString(body),
		FileName:    lastPathSegment(imageURL),
		FileType:    detectMIME(body, imageURL),
		Timestamp:   r.now().UnixMilli(),
	}
	encodedInner, err := json.Marshal(file)
	if err != nil {
		return nil, err
	}
	fields["payload"] = encodedInner
	fields["type"] = json.RawMessage(`"` + fileTransferType + `"`)
	return json.Marshal(fields)
}

// detectMIME sniffs the downloaded bytes. The sniffer always produces some
// type (text/plain or application/octet-stream for anything it cannot place),
// so only an image detection counts; everything else is inconclusive and the
// URL's file extension decides.
func detectMIME(body []byte, url string) string {
	if mt := mimetype.Detect(body); strings.HasPrefix(mt.String(), "image/") {
		return mt.String()
	}
	ext := strings.ToLower(url[strings.LastIndex(url, ".")+1:])
	return "image/" + ext
}

func lastPathSegment(url string) string {
	return url[strings.LastIndex(url, "/")+1:]
}
