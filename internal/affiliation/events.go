package affiliation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ajuna-network/affiliate-fix/internal/domain/model"
	"github.com/ajuna-network/affiliate-fix/internal/subscan"
	"golang.org/x/sync/errgroup"
)

const affiliatorParam = "to"

type EventLister interface {
	ListEvents(ctx context.Context, q subscan.EventsQuery) (*subscan.EventsPage, error)
}

type EventGetter interface {
	GetEvent(ctx context.Context, index string) (*subscan.Event, error)
}

var ErrUnexpectedEvent = errors.New("unexpected event shape")

// CollectEventIDs pages through every eventID event and returns the event
// indexes oldest first.
func CollectEventIDs(ctx context.Context, lister EventLister, eventID string, pageSize int, logger *slog.Logger) ([]string, error) {
	if pageSize <= 0 {
		pageSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}

	var ids []string
	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := lister.ListEvents(ctx, subscan.EventsQuery{EventID: eventID, Page: page, Row: pageSize})
		if err != nil {
			return nil, err
		}
		for _, e := range result.Events {
			ids = append(ids, e.EventIndex)
		}
		logger.Info("event page fetched",
			"event_id", eventID,
			"page", page,
			"visited", len(ids),
			"total", result.Count,
		)

		if len(result.Events) == 0 || len(ids) >= result.Count {
			break
		}
	}

	// Subscan lists newest first.
	slices.Reverse(ids)
	return ids, nil
}

// ResolveEventAccounts fetches each event and extracts its affiliator and
// affiliatee. Results keep the order of ids.
func ResolveEventAccounts(ctx context.Context, getter EventGetter, ids []string, workers int, logger *slog.Logger) ([]model.EventAccount, error) {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	out := make([]model.EventAccount, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, id := range ids {
		g.Go(func() error {
			event, err := getter.GetEvent(gctx, id)
			if err != nil {
				return err
			}
			accounts, err := EventAccountFromEvent(id, event)
			if err != nil {
				return err
			}
			out[i] = accounts
			logger.Debug("event resolved", "event_index", id, "affiliator", accounts.Affiliator, "affiliatee", accounts.Affiliatee)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// EventAccountFromEvent reads the affiliation pair out of an
// AccountAffiliated event. The param named "to" is the affiliator.
func EventAccountFromEvent(index string, event *subscan.Event) (model.EventAccount, error) {
	if event == nil {
		return model.EventAccount{}, fmt.Errorf("%w: event %s: no data", ErrUnexpectedEvent, index)
	}
	if len(event.Params) < 2 {
		return model.EventAccount{}, fmt.Errorf("%w: event %s: %d params", ErrUnexpectedEvent, index, len(event.Params))
	}

	first, second := event.Params[0], event.Params[1]
	if first.Name != affiliatorParam {
		first, second = second, first
	}

	affiliator, err := first.StringValue()
	if err != nil {
		return model.EventAccount{}, fmt.Errorf("%w: event %s: %w", ErrUnexpectedEvent, index, err)
	}
	affiliatee, err := second.StringValue()
	if err != nil {
		return model.EventAccount{}, fmt.Errorf("%w: event %s: %w", ErrUnexpectedEvent, index, err)
	}

	return model.EventAccount{EventIndex: index, Affiliator: affiliator, Affiliatee: affiliatee}, nil
}
