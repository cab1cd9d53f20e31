package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// titleResponse is the provider's by-id payload.
type titleResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Year      string `json:"year"`
	Image     string `json:"image"`
	Plot      string `json:"plot"`
	Genres    string `json:"genres"` // comma separated
	ErrorMsg  string `json:"errorMessage"`
	Available bool   `json:"-"`
}

type searchResponse struct {
	Results []struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Image       string `json:"image"`
	} `json:"results"`
	ErrorMsg string `json:"errorMessage"`
}

func (c *Client) GetByID(ctx context.Context, id string) (*Movie, error) {
	endpoint := fmt.Sprintf("%s/Title/%s/%s", c.baseURL, c.apiKey, url.PathEscape(id))

	var res titleResponse
	if err := c.get(ctx, endpoint, &res); err != nil {
		return nil, err
	}
	if res.ErrorMsg != "" || res.ID == "" {
		return nil, ErrMovieNotFound
	}

	return &Movie{
		ID:     res.ID,
		Title:  res.Title,
		Year:   res.Year,
		Poster: res.Image,
		Plot:   res.Plot,
		Genres: splitGenres(res.Genres),
	}, nil
}

func (c *Client) SearchByTitle(ctx context.Context, title string) ([]Movie, error) {
	endpoint := fmt.Sprintf("%s/SearchMovie/%s/%s", c.baseURL, c.apiKey, url.PathEscape(title))

	var res searchResponse
	if err := c.get(ctx, endpoint, &res); err != nil {
		return nil, err
	}
	if res.ErrorMsg != "" {
		return nil, fmt.Errorf("catalog search failed: %s", res.ErrorMsg)
	}

	movies := make([]Movie, 0, len(res.Results))
	for _, r := range res.Results {
		movies = append(movies, Movie{
			ID:     r.ID,
			Title:  r.Title,
			Year:   r.Description,
			Poster: r.Image,
		})
	}
	return movies, nil
}

// Lookup tries the by-id endpoint first and falls back to a title search
// when the id lookup fails for any reason. The first search hit wins.
func (c *Client) Lookup(ctx context.Context, id, title string) (*Movie, error) {
	if id != "" {
		movie, err := c.GetByID(ctx, id)
		if err == nil {
			return movie, nil
		}
		if title == "" {
			return nil, err
		}
	}
	if title == "" {
		return nil, ErrMovieNotFound
	}

	results, err := c.SearchByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrMovieNotFound
	}
	return &results[0], nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return ErrMovieNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog request failed: http=%d body=%s", resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	return nil
}

func splitGenres(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	genres := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

var _ Provider = (*Client)(nil)

// IsNotFound reports whether err means the catalog has no such movie, as
// opposed to the provider being unreachable.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMovieNotFound)
}
