package timeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/emetrics/populate/pkg/entities"
	"github.com/emetrics/populate/pkg/errors"
	"github.com/emetrics/populate/pkg/logging"
)

// NewsReader fetches the news items stage history links to.
type NewsReader interface {
	News(ctx context.Context, id int64) (*entities.NewsItem, error)
}

// RenderHistory flattens stage history into one line of text for the
// prompt. Entries carry no newline separators because the model echoes them
// back verbatim inside its JSON string. A missing news item is rendered as
// not found; any other read error is returned.
func RenderHistory(ctx context.Context, news NewsReader, history []entities.StageEntry) (string, error) {
	logger := logging.FromContext(ctx)

	var b strings.Builder
	for _, entry := range history {
		fmt.Fprintf(&b, "date: %s; stage value: %s; ", entry.Date, entry.StageString())
		if !entry.HasNews() {
			b.WriteString("no news id; ")
			continue
		}

		id := *entry.NewsID
		fmt.Fprintf(&b, "news id #%d; ", id)
		item, err := news.News(ctx, id)
		if err != nil {
			if errors.IsNotFound(err) {
				logger.Warn().Int64("news_id", id).Msg("Stage history links a news item that does not exist")
				b.WriteString("not found; ")
				continue
			}
			return "", errors.WrapResource("read", "news", fmt.Sprint(id), err)
		}
		fmt.Fprintf(&b, "text: %s; summary: %s; ", item.Text, item.Summary)
	}
	return b.String(), nil
}

// SortByDate returns a copy of history stably ordered by parsed date.
// Entries whose date is unknown or unparseable keep their relative order
// after the dated ones.
func SortByDate(history []entities.StageEntry) []entities.StageEntry {
	type keyed struct {
		entry entities.StageEntry
		date  entities.PartialDate
		known bool
	}

	items := make([]keyed, len(history))
	for i, entry := range history {
		date, err := entities.ParseDate(entry.Date)
		items[i] = keyed{entry: entry, date: date, known: err == nil && date.Known()}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.known != b.known {
			return a.known
		}
		if !a.known {
			return false
		}
		return a.date.Time().Before(b.date.Time())
	})

	out := make([]entities.StageEntry, len(items))
	for i, item := range items {
		out[i] = item.entry
	}
	return out
}
