package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gramflow/gramflow/internal/database"
	"github.com/gramflow/gramflow/internal/model"
)

// CategoryBreakdown aggregates the interest scores of an account's
// followed subjects for one category.
type CategoryBreakdown struct {
	// Category is the taxonomy name.
	Category string

	// Subjects is how many followed accounts scored in this category.
	Subjects int

	// AvgConfidence is the mean confidence across those subjects.
	AvgConfidence float64
}

// Summary is everything the report renders for one account.
type Summary struct {
	// Account is the subject of the report.
	Account model.Account

	// Mutuals are the account's derived mutual connections.
	Mutuals []model.Account

	// Interests is the category breakdown of the accounts the subject
	// follows, sorted by subject count descending.
	Interests []CategoryBreakdown

	// GeneratedAt is when the summary was assembled.
	GeneratedAt time.Time
}

// Summarize assembles a Summary for the account with the given handle.
func Summarize(ctx context.Context, store *database.Store, username string) (*Summary, error) {
	account, err := store.GetAccountByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %q not found", username)
	}

	summary := &Summary{
		Account:     *account,
		GeneratedAt: time.Now(),
	}

	mutualIDs, err := store.MutualIDs(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("load mutuals: %w", err)
	}
	for _, id := range mutualIDs {
		mutual, err := store.GetAccount(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load mutual account: %w", err)
		}
		if mutual != nil {
			summary.Mutuals = append(summary.Mutuals, *mutual)
		}
	}

	breakdown, err := interestBreakdown(ctx, store, account.ID)
	if err != nil {
		return nil, err
	}
	summary.Interests = breakdown

	return summary, nil
}

func interestBreakdown(ctx context.Context, store *database.Store, accountID string) ([]CategoryBreakdown, error) {
	categories, err := store.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	following, err := store.FollowingAccounts(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load following accounts: %w", err)
	}

	type agg struct {
		count int
		sum   float64
	}
	byCategory := make(map[int64]*agg)
	for _, f := range following {
		scores, err := store.InterestScores(ctx, f.ID)
		if err != nil {
			return nil, fmt.Errorf("load interest scores: %w", err)
		}
		for _, score := range scores {
			a := byCategory[score.CategoryID]
			if a == nil {
				a = &agg{}
				byCategory[score.CategoryID] = a
			}
			a.count++
			a.sum += score.Confidence
		}
	}

	breakdown := make([]CategoryBreakdown, 0, len(byCategory))
	for id, a := range byCategory {
		breakdown = append(breakdown, CategoryBreakdown{
			Category:      names[id],
			Subjects:      a.count,
			AvgConfidence: a.sum / float64(a.count),
		})
	}

	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Subjects != breakdown[j].Subjects {
			return breakdown[i].Subjects > breakdown[j].Subjects
		}
		return breakdown[i].Category < breakdown[j].Category
	})
	return breakdown, nil
}
