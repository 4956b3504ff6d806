package jsearch

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/mitchellh/mapstructure"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
)

// getData makes a GET request and returns the items of the "data" envelope.
func (c *Client) getData(ctx context.Context, path string, q url.Values) ([]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	req.URL.RawQuery = q.Encode()

	resp, err := c.request(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return nil, ErrMalformedResponse
	}

	items, _ := data.Value().([]any)
	return items, nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.Redacted()))
	return c.HTTPClient.Do(req)
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", apiHost)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

type validator interface {
	validate() error
}

// decodeItems decodes every item into T and drops the ones that fail
// validation. It returns the kept items and the number dropped.
func decodeItems[T any, PT interface {
	*T
	validator
}](items []any) ([]*T, int, error) {
	out := make([]*T, 0, len(items))
	dropped := 0

	for _, item := range items {
		target := PT(new(T))
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           target,
			TagName:          "json",
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, 0, err
		}

		if err := decoder.Decode(item); err != nil {
			dropped++
			continue
		}
		if err := target.validate(); err != nil {
			dropped++
			continue
		}
		out = append(out, (*T)(target))
	}

	return out, dropped, nil
}
