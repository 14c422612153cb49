//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_repository.go -package=mocks
package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"

	"fitstake/domain"
)

type ISearchRepository interface {
	Index(challenge domain.Challenge) error
	Search(ctx context.Context, query string, limit int) ([]string, uint64, error)
}

// SearchRepository maintains a full text index over challenge names and
// descriptions. The index is derivable from the challenge store, so a
// lost write costs a search hit, never data.
type SearchRepository struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchRepository(writer *bluge.Writer, log *slog.Logger) *SearchRepository {
	return &SearchRepository{writer: writer, log: log}
}

func (s *SearchRepository) Index(challenge domain.Challenge) error {
	doc := bluge.NewDocument(challenge.ID).
		AddField(bluge.NewTextField("name", challenge.Name)).
		AddField(bluge.NewTextField("description", challenge.Description)).
		AddField(bluge.NewKeywordField("community_id", challenge.CommunityID))

	if err := s.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("index challenge %s: %w", challenge.ID, err)
	}
	return nil
}

// Search returns the IDs of challenges matching the query on name or
// description, best match first, plus the total hit count.
func (s *SearchRepository) Search(ctx context.Context, query string, limit int) ([]string, uint64, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, 0, fmt.Errorf("open index reader: %w", err)
	}
	defer reader.Close()

	name := bluge.NewMatchQuery(query).SetField("name")
	description := bluge.NewMatchQuery(query).SetField("description")
	q := bluge.NewBooleanQuery().AddShould(name, description).SetMinShould(1)

	request := bluge.NewTopNSearch(limit, q).WithStandardAggregations()
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, 0, err
	}

	var ids []string
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, 0, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if err != nil {
			return nil, 0, err
		}
	}
	return ids, iterator.Aggregations().Count(), nil
}
