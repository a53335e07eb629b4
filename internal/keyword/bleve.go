package keyword

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
)

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. An existing index is
// reused so already-transcribed videos stay searchable across restarts. If the
// mapping changes in code, remove the index directory to force a rebuild.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so a query like
	// "bayes" matches the spoken word exactly; the English analyzer stems
	// "Bayesian" -> "bayesi" and "bayes" -> "bay", which never meet.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("video_id", keywordFieldMapping)
	numericFieldMapping := bleve.NewNumericFieldMapping()
	docMapping.AddFieldMappingsAt("start", numericFieldMapping)
	docMapping.AddFieldMappingsAt("end", numericFieldMapping)
	im.AddDocumentMapping("segment", docMapping)
	im.DefaultType = "segment"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index indexes one segment document by segment id.
func (b *BleveIndex) Index(ctx context.Context, segmentID string, doc *SegmentDoc) error {
	return b.index.Index(segmentID, doc)
}

// Search runs a match query over segment text, restricted to one video, and
// returns up to limit hits ordered by score.
func (b *BleveIndex) Search(ctx context.Context, videoID, query string, limit int) ([]*Result, error) {
	textQuery := bleve.NewMatchQuery(query)
	textQuery.SetField("text")
	videoQuery := bleve.NewTermQuery(videoID)
	videoQuery.SetField("video_id")
	q := bleve.NewConjunctionQuery(textQuery, videoQuery)

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"start", "end", "text"}
	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	out := make([]*Result, 0, len(results.Hits))
	for _, hit := range results.Hits {
		r := &Result{Score: hit.Score}
		if v, ok := hit.Fields["start"].(float64); ok {
			r.Start = v
		}
		if v, ok := hit.Fields["end"].(float64); ok {
			r.End = v
		}
		if v, ok := hit.Fields["text"].(string); ok {
			r.Text = v
		}
		out = append(out, r)
	}
	return out, nil
}

// DeleteVideo removes every segment document indexed for a video.
func (b *BleveIndex) DeleteVideo(ctx context.Context, videoID string) error {
	videoQuery := bleve.NewTermQuery(videoID)
	videoQuery.SetField("video_id")
	req := bleve.NewSearchRequest(videoQuery)
	req.Size = 10000
	results, err := b.index.Search(req)
	if err != nil {
		return fmt.Errorf("Bleve delete lookup failed: %w", err)
	}
	batch := b.index.NewBatch()
	for _, hit := range results.Hits {
		batch.Delete(hit.ID)
	}
	return b.index.Batch(batch)
}

// DocCount returns the total number of indexed segments.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
