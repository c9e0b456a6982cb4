package postgres

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/models"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQuoteReplay(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t, ctx)

	input := quoteInput("rental", "RNT")
	first, created, err := st.CreateQuote(ctx, input)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "RNT-0001", first.Reference)

	again, created, err := st.CreateQuote(ctx, input)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.QuoteID, again.QuoteID)

	changed := input
	changed.Phone = "+91 90000 11111"
	_, _, err = st.CreateQuote(ctx, changed)
	require.ErrorIs(t, err, store.ErrDuplicateRequest)

	assert.Equal(t, 1, countRows(t, ctx, st, `SELECT COUNT(*) FROM outbox_events WHERE type = $1`, store.EventQuoteCreated))
}

func TestCreateQuoteConcurrentSameRequest(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t, ctx)

	input := quoteInput("transport", "TRN")
	const workers = 8

	type result struct {
		quote   models.Quote
		created bool
		err     error
	}
	results := make(chan result, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			quote, created, err := st.CreateQuote(ctx, input)
			results <- result{quote: quote, created: created, err: err}
		}()
	}
	wg.Wait()
	close(results)

	var createdCount int
	ids := map[string]bool{}
	for res := range results {
		require.NoError(t, res.err)
		if res.created {
			createdCount++
		}
		ids[res.quote.QuoteID] = true
	}
	assert.Equal(t, 1, createdCount)
	assert.Len(t, ids, 1)
	assert.Equal(t, 1, countRows(t, ctx, st, `SELECT COUNT(*) FROM quotes WHERE request_id = $1`, input.RequestID))
	assert.Equal(t, 1, countRows(t, ctx, st, `SELECT COUNT(*) FROM quote_events`))

	// The losing inserts roll back their sequence bump.
	next, _, err := st.CreateQuote(ctx, quoteInput("transport", "TRN"))
	require.NoError(t, err)
	assert.Equal(t, "TRN-0002", next.Reference)
}

func TestQuoteEventsVerifyAfterRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t, ctx)

	input := quoteInput("contractors", "CON")
	quote, _, err := st.CreateQuote(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, input.CreatedAt.Truncate(time.Microsecond), quote.CreatedAt)

	_, err = st.TransitionQuote(ctx, store.QuoteActionInput{
		QuoteID:    quote.QuoteID,
		Action:     store.ActionContact,
		Actor:      "sales@casaterminal.com",
		OccurredAt: input.CreatedAt.Add(time.Hour + 987*time.Nanosecond),
	})
	require.NoError(t, err)
	_, err = st.TransitionQuote(ctx, store.QuoteActionInput{QuoteID: quote.QuoteID, Action: store.ActionQuote, Note: "sent estimate"})
	require.NoError(t, err)

	events, err := st.ListQuoteEvents(ctx, quote.QuoteID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.NoError(t, store.VerifyQuoteEvents(events))

	rebuilt, err := store.RehydrateQuote(events)
	require.NoError(t, err)
	assert.Equal(t, models.StatusQuoted, rebuilt.Status)
	assert.Equal(t, quote.Reference, rebuilt.Reference)

	stored, err := st.GetQuote(ctx, quote.QuoteID)
	require.NoError(t, err)
	assert.True(t, stored.CreatedAt.Equal(quote.CreatedAt))
	require.NotNil(t, stored.ContactedAt)
	assert.Zero(t, stored.ContactedAt.Nanosecond()%int(time.Microsecond))
}

func TestOutboxPagesByTimeAndID(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t, ctx)

	// Equal timestamps leave event_id as the only tiebreak.
	for i := 0; i < 3; i++ {
		_, _, err := st.CreateQuote(ctx, quoteInput("rental", "RNT"))
		require.NoError(t, err)
	}
	later := quoteInput("rental", "RNT")
	later.CreatedAt = later.CreatedAt.Add(time.Second)
	_, _, err := st.CreateQuote(ctx, later)
	require.NoError(t, err)

	offset, err := st.GetOffset(ctx, "notifications")
	require.NoError(t, err)
	assert.True(t, offset.LastEventTime.IsZero())

	var seen []store.OutboxEvent
	for {
		page, err := st.ListOutboxEvents(ctx, offset, 1)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		require.Len(t, page, 1)
		seen = append(seen, page[0])
		offset = offset.Advance(page[0])
		require.NoError(t, st.UpdateOffset(ctx, "notifications", offset))
		offset, err = st.GetOffset(ctx, "notifications")
		require.NoError(t, err)
	}

	require.Len(t, seen, 4)
	tied := []string{seen[0].EventID, seen[1].EventID, seen[2].EventID}
	assert.True(t, sort.StringsAreSorted(tied))
	assert.True(t, seen[0].CreatedAt.Equal(seen[2].CreatedAt))
	assert.True(t, seen[3].CreatedAt.After(seen[2].CreatedAt))

	other, err := st.GetOffset(ctx, "realtime")
	require.NoError(t, err)
	all, err := st.ListOutboxEvents(ctx, other, 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func quoteInput(service, code string) store.CreateQuoteInput {
	return store.CreateQuoteInput{
		RequestID:   uuid.NewString(),
		Name:        "Asha Menon",
		Phone:       "+91 98765 43210",
		Email:       "asha@example.com",
		Service:     service,
		ServiceCode: code,
		Details:     "Need 40 bags of cement",
		Source:      models.SourceWeb,
		CreatedAt:   time.Date(2026, time.March, 3, 9, 30, 0, 123456789, time.UTC),
	}
}

func countRows(t *testing.T, ctx context.Context, st *Store, query string, args ...any) int {
	t.Helper()
	var count int
	require.NoError(t, st.pool.QueryRow(ctx, query, args...).Scan(&count))
	return count
}

// setupTestStore migrates a throwaway schema and drops it on cleanup.
func setupTestStore(t *testing.T, ctx context.Context) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = os.Getenv("DB_DSN")
	}
	if dsn == "" {
		t.Skip("TEST_DB_DSN or DB_DSN is required for integration tests")
	}

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	require.NoError(t, execOnce(ctx, dsn, "CREATE SCHEMA "+schema))

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)

	st := NewStore(pool)
	t.Cleanup(func() {
		st.Close()
		_ = execOnce(context.Background(), dsn, "DROP SCHEMA "+schema+" CASCADE")
	})
	require.NoError(t, st.Migrate(ctx))
	return st
}

func execOnce(ctx context.Context, dsn, sql string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	_, err = conn.Exec(ctx, sql)
	return err
}
