package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewMockForTests returns a *Store whose client talks to an in-process fake
// S3 endpoint. It covers exactly the calls the media contract makes: head,
// put, get, and the list used by ForRecord. Presigning works for real since
// it never leaves the SDK.
func NewMockForTests() *Store {
	fake := &fakeS3{objects: make(map[string]fakeObject)}
	cfg, _ := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: fake}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://mock.s3.local")
	})
	return &Store{client: client, bucket: "mock-bucket", presign: s3.NewPresignClient(client)}
}

type fakeObject struct {
	body        []byte
	contentType string
	usid        string
}

// fakeS3 serves the S3 wire protocol subset out of a map.
type fakeS3 struct{ objects map[string]fakeObject }

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	key := objectKey(req.URL.Path)
	switch {
	case req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2":
		return f.list(req.URL.Query().Get("prefix")), nil
	case req.Method == http.MethodHead:
		return f.describe(key, false), nil
	case req.Method == http.MethodGet:
		return f.describe(key, true), nil
	case req.Method == http.MethodPut:
		return f.store(key, req), nil
	}
	return reply(http.StatusNotImplemented, nil, nil), nil
}

// objectKey strips the path-style bucket segment.
func objectKey(path string) string {
	parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return ""
}

func (f *fakeS3) describe(key string, withBody bool) *http.Response {
	obj, ok := f.objects[key]
	if !ok {
		return reply(http.StatusNotFound, nil, nil)
	}
	header := http.Header{
		"Content-Length":  {strconv.Itoa(len(obj.body))},
		"Content-Type":    {obj.contentType},
		"ETag":            {`"fake-etag"`},
		"Last-Modified":   {time.Now().UTC().Format(http.TimeFormat)},
		"X-Amz-Meta-Usid": {obj.usid},
	}
	if withBody {
		return reply(http.StatusOK, obj.body, header)
	}
	return reply(http.StatusOK, nil, header)
}

func (f *fakeS3) store(key string, req *http.Request) *http.Response {
	body, _ := io.ReadAll(req.Body)
	if decoded, ok := unchunk(body); ok {
		body = decoded
	}
	f.objects[key] = fakeObject{
		body:        body,
		contentType: req.Header.Get("Content-Type"),
		usid:        req.Header.Get("X-Amz-Meta-Usid"),
	}
	return reply(http.StatusOK, nil, http.Header{"ETag": {`"fake-etag"`}})
}

func (f *fakeS3) list(prefix string) *http.Response {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
	for _, k := range keys {
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>", k, len(f.objects[k].body))
	}
	b.WriteString("</ListBucketResult>")
	return reply(http.StatusOK, []byte(b.String()), http.Header{"Content-Type": {"application/xml"}})
}

func reply(status int, body []byte, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(body)), Header: header}
}

// unchunk unwraps a single-chunk aws-chunked payload:
// <hex-size>[;ext]\r\n<body>\r\n0[;ext]\r\n...
func unchunk(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 {
		return nil, false
	}
	sizeHex, _, _ := strings.Cut(parts[0], ";")
	size, err := strconv.ParseInt(sizeHex, 16, 64)
	if err != nil || int64(len(parts[1])) != size {
		return nil, false
	}
	last, _, _ := strings.Cut(parts[2], ";")
	if last != "0" {
		return nil, false
	}
	return []byte(parts[1]), true
}
