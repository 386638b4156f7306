package headhunter

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// GetVacancy loads full vacancy details, including key skills.
func (c *Client) GetVacancy(ctx context.Context, id string) (*Vacancy, error) {
	if id == "" {
		return nil, fmt.Errorf("vacancy id is required")
	}

	var vacancy Vacancy
	if err := c.getJSON(ctx, fmt.Sprintf("%s%s/%s", c.APIURL, SearchPath, id), nil, &vacancy); err != nil {
		return nil, fmt.Errorf("getting vacancy %s: %w", id, err)
	}

	return &vacancy, nil
}

// Vacancies searches open vacancies for a role and enriches every result
// with its details. Detail failures keep the search snapshot.
func (c *Client) Vacancies(ctx context.Context, role string) (*Vacancies, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return nil, fmt.Errorf("role is required")
	}

	params := c.Search
	params.Text = role

	found, err := c.search(ctx, &params)
	if err != nil {
		return nil, fmt.Errorf("searching vacancies for %q: %w", role, err)
	}
	found.ExcludeArchived()

	c.logger.Info("market vacancies found", zap.String("role", role), zap.Int("count", found.Len()))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailWorkers)

	details := make([]*Vacancy, len(found.Items))
	for i, vacancy := range found.Items {
		g.Go(func() error {
			full, err := c.GetVacancy(gctx, vacancy.ID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Warn("vacancy details unavailable", zap.String("vacancy_id", vacancy.ID), zap.Error(err))
				return nil
			}
			details[i] = full
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, full := range details {
		if full != nil {
			found.Items[i] = full
		}
	}

	return found, nil
}
