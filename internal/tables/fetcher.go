package tables

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// Fetcher downloads difficulty-table descriptors and song lists.
type Fetcher struct {
	client *fasthttp.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// FetchDescriptors downloads the table list itself.
func (f *Fetcher) FetchDescriptors(ctx context.Context, url string) ([]Descriptor, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	return decodeDescriptors(body)
}

// FetchTable downloads one table's song list. Upstream tables publish either
// a bare song array or an object already wrapped with a shortName, so both
// shapes are accepted.
func (f *Fetcher) FetchTable(ctx context.Context, desc Descriptor) (*RawTable, error) {
	body, err := f.get(ctx, desc.URL)
	if err != nil {
		return nil, err
	}
	return decodeTable(desc, body)
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := f.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := f.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode())
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

func decodeDescriptors(body []byte) ([]Descriptor, error) {
	var list []Descriptor
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Tables []Descriptor `json:"tables"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil || wrapped.Tables == nil {
		return nil, fmt.Errorf("unexpected table list format")
	}
	return wrapped.Tables, nil
}

func decodeTable(desc Descriptor, body []byte) (*RawTable, error) {
	var table RawTable
	if err := json.Unmarshal(body, &table); err == nil && table.Songs != nil {
		if table.ShortName == "" {
			table.ShortName = desc.ShortName
		}
		return &table, nil
	}

	table = RawTable{ShortName: desc.ShortName}
	if err := json.Unmarshal(body, &table.Songs); err != nil {
		return nil, fmt.Errorf("table %s: malformed song list: %w", desc.InternalFileName, err)
	}
	return &table, nil
}
