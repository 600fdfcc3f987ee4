package api

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/yanizio/movienest/internal/upload"
)

// Movie is the server-owned record.
type Movie struct {
	ID    int    `json:"id"`
	Title string `json:"movie_title"`
	Year  Year   `json:"movie_publishing_year"`
	Image string `json:"movie_image"`
}

// Year decodes from a JSON number or a quoted number.
type Year int

func (y *Year) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*y = 0
		return nil
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("movie_publishing_year: %w", err)
	}
	*y = Year(n)
	return nil
}

func (y Year) String() string { return strconv.Itoa(int(y)) }

// MovieDraft is a validated create/update submission.  Image is required
// for create and optional for update.
type MovieDraft struct {
	Title string
	Year  string
	Image *upload.File
}

func (d MovieDraft) multipart() *Multipart {
	return NewMultipart().
		Field("movie_title", d.Title).
		Field("movie_publishing_year", d.Year).
		File("movie_image", d.Image)
}

// MoviePage is one page of the catalog and the server's total count.
type MoviePage struct {
	Movies []Movie `json:"data"`
	Total  int     `json:"total"`
}

// ListMovies fetches one page.
func (c *Client) ListMovies(ctx context.Context, page, limit int) (*MoviePage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	resp, err := c.Get(ctx, "/movies/get-movies?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("list movies page %d: %w", page, err)
	}
	var out MoviePage
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("list movies page %d: %w", page, err)
	}
	return &out, nil
}

// GetMovie fetches one record.
func (c *Client) GetMovie(ctx context.Context, id int) (*Movie, error) {
	resp, err := c.Get(ctx, fmt.Sprintf("/movies/get-movie-by-id/%d", id))
	if err != nil {
		return nil, fmt.Errorf("get movie %d: %w", id, err)
	}
	var out struct {
		Data *Movie `json:"data"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("get movie %d: %w", id, err)
	}
	if out.Data == nil {
		return nil, fmt.Errorf("get movie %d: empty data", id)
	}
	return out.Data, nil
}

// CreateMovie posts a new record.
func (c *Client) CreateMovie(ctx context.Context, d MovieDraft) error {
	if _, err := c.PostMultipart(ctx, "/movies/create-movie", d.multipart()); err != nil {
		return fmt.Errorf("create movie: %w", err)
	}
	return nil
}

// UpdateMovie replaces title and year, and the image when d.Image is set.
func (c *Client) UpdateMovie(ctx context.Context, id int, d MovieDraft) error {
	path := fmt.Sprintf("/movies/update-movie/%d", id)
	if _, err := c.PutMultipart(ctx, path, d.multipart()); err != nil {
		return fmt.Errorf("update movie %d: %w", id, err)
	}
	return nil
}

// ImageURL is where the API serves an uploaded image.  An empty filename
// yields "".
func (c *Client) ImageURL(filename string) string {
	if filename == "" {
		return ""
	}
	return c.baseURL + "/uploads/" + url.PathEscape(filename)
}
