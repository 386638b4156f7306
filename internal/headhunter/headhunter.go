package headhunter

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL      = "https://api.hh.ru"
	mineResumID = "mine"
	userAgent   = "spigell/career-architect (spigelly@gmail.com)"
	// Max value for search per page.
	perPage = "100"
	// detailWorkers bounds concurrent vacancy detail requests.
	detailWorkers = 4
)

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	// Search holds the base search parameters for market lookups.
	Search SearchParams
	// Limit caps the number of vacancies a market lookup inspects.
	Limit int
}

func New(logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
		Limit:     20,
	}
}

func (c *Client) SearchVacancies(ctx context.Context, params *SearchParams) (*Vacancies, error) {
	return c.search(ctx, params)
}

// HasToken reports whether the client can read the candidate's own resumes.
func (c *Client) HasToken() bool {
	return c.token != ""
}

func (c *Client) GetMineResumes(ctx context.Context) (*Resumes, error) {
	return c.getResumes(ctx, mineResumID)
}
