package anki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/bird/internal/envelope"
)

const statsConcurrency = 4

// CreateDeck creates a deck and returns its ID. Creating an existing deck
// returns the existing ID.
func (c *Client) CreateDeck(ctx context.Context, name string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, envelope.Validationf("deck_name is required")
	}
	var id int64
	if err := c.call(ctx, "createDeck", map[string]any{"deck": name}, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// ListDecks returns all decks sorted by name.
func (c *Client) ListDecks(ctx context.Context) ([]Deck, error) {
	var byName map[string]int64
	if err := c.call(ctx, "deckNamesAndIds", nil, &byName); err != nil {
		return nil, err
	}
	decks := make([]Deck, 0, len(byName))
	for name, id := range byName {
		decks = append(decks, Deck{Name: name, ID: id})
	}
	sort.Slice(decks, func(i, j int) bool { return decks[i].Name < decks[j].Name })
	return decks, nil
}

// DeckStats combines getDeckStats with card searches for one deck.
func (c *Client) DeckStats(ctx context.Context, deck string) (*DeckStats, error) {
	if strings.TrimSpace(deck) == "" {
		return nil, envelope.Validationf("deck_name is required")
	}

	stats := &DeckStats{Deck: deck}
	base := deckQuery(deck)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := c.invoke(gctx, "getDeckStats", map[string]any{"decks": []string{deck}})
		if err != nil {
			return err
		}
		// The result is keyed by deck ID, not name.
		res.ForEach(func(_, v gjson.Result) bool {
			if v.Get("name").String() != deck {
				return true
			}
			stats.NewCardsToday = int(v.Get("new_count").Int())
			stats.LearnCount = int(v.Get("learn_count").Int())
			stats.ReviewCount = int(v.Get("review_count").Int())
			stats.TotalInDeck = int(v.Get("total_in_deck").Int())
			return false
		})
		return nil
	})
	for query, dst := range map[string]*int{
		base:             &stats.TotalCards,
		base + " is:new": &stats.NewCards,
		base + " is:due": &stats.CardsDueToday,
	} {
		g.Go(func() error {
			n, err := c.countCards(gctx, query)
			*dst = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *Client) countCards(ctx context.Context, query string) (int, error) {
	res, err := c.invoke(ctx, "findCards", map[string]any{"query": query})
	if err != nil {
		return 0, err
	}
	return len(res.Array()), nil
}

// AllStats collects DeckStats for every deck with bounded concurrency.
// Per-deck failures are reported in AllStats.Errors; the call fails only
// when no deck could be read.
func (c *Client) AllStats(ctx context.Context) (*AllStats, error) {
	decks, err := c.ListDecks(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		result = &AllStats{Decks: make([]DeckStats, 0, len(decks))}
		errs   error
	)
	var g errgroup.Group
	g.SetLimit(statsConcurrency)
	for _, d := range decks {
		g.Go(func() error {
			s, err := c.DeckStats(ctx, d.Name)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("deck %q: %w", d.Name, err))
				return nil
			}
			result.Decks = append(result.Decks, *s)
			return nil
		})
	}
	_ = g.Wait()

	if len(result.Decks) == 0 && errs != nil {
		return nil, errs
	}

	sort.Slice(result.Decks, func(i, j int) bool { return result.Decks[i].Deck < result.Decks[j].Deck })
	result.Overall.TotalDecks = len(decks)
	for _, s := range result.Decks {
		result.Overall.TotalCards += s.TotalCards
		result.Overall.TotalNewCards += s.NewCards
		result.Overall.TotalCardsDueToday += s.CardsDueToday
	}
	for _, e := range multierr.Errors(errs) {
		result.Errors = append(result.Errors, e.Error())
	}
	return result, nil
}

// UpdateDeckConfig changes the daily limits of the options group used by
// deck. Every other key of the group is sent back unchanged.
func (c *Client) UpdateDeckConfig(ctx context.Context, deck string, newPerDay, reviewsPerDay *int64) (*DeckLimits, error) {
	if strings.TrimSpace(deck) == "" {
		return nil, envelope.Validationf("deck_name is required")
	}
	if newPerDay == nil && reviewsPerDay == nil {
		return nil, envelope.Validationf("new_cards_per_day or reviews_per_day is required")
	}
	for _, v := range []*int64{newPerDay, reviewsPerDay} {
		if v != nil && *v < 0 {
			return nil, envelope.Validationf("daily limits cannot be negative, got %d", *v)
		}
	}

	res, err := c.invoke(ctx, "getDeckConfig", map[string]any{"deck": deck})
	if err != nil {
		return nil, err
	}
	if !res.IsObject() {
		return nil, envelope.NotFoundf("deck %q not found", deck)
	}

	cfg := res.Raw
	if newPerDay != nil {
		if cfg, err = sjson.Set(cfg, "new.perDay", *newPerDay); err != nil {
			return nil, fmt.Errorf("failed to set new.perDay: %w", err)
		}
	}
	if reviewsPerDay != nil {
		if cfg, err = sjson.Set(cfg, "rev.perDay", *reviewsPerDay); err != nil {
			return nil, fmt.Errorf("failed to set rev.perDay: %w", err)
		}
	}

	var saved bool
	if err := c.call(ctx, "saveDeckConfig", map[string]any{"config": json.RawMessage(cfg)}, &saved); err != nil {
		return nil, err
	}
	if !saved {
		return nil, errors.New("AnkiConnect refused to save the deck configuration")
	}

	return &DeckLimits{
		NewCardsPerDay: gjson.Get(cfg, "new.perDay").Int(),
		ReviewsPerDay:  gjson.Get(cfg, "rev.perDay").Int(),
	}, nil
}

func deckQuery(deck string) string {
	return `deck:"` + strings.ReplaceAll(deck, `"`, `\"`) + `"`
}
