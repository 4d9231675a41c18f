// Package pagemodel holds the in-memory shape of the two item kinds that
// make up one logical list — the summary and the data page — along with
// their encoding to and from DynamoDB attribute maps. It has no behavior
// beyond shape, defaults, and (de)serialization, the same role the
// teacher's storage.types.go plays for on-disk B-tree pages.
package pagemodel

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// SchemaVersion is the initial and, for now, only schema version written by
// this module (§3: "v: schema version integer (initial value 1)").
const SchemaVersion = 1

// FieldDataList is the list-valued attribute name data pages append to.
const FieldDataList = "data_list"

// FieldCurrentPage is the numeric attribute name the summary's counter is
// stored under.
const FieldCurrentPage = "currentPage"

// Summary is the single per-list metadata item (§3).
type Summary struct {
	ID          string `dynamodbav:"id"`
	CurrentPage int    `dynamodbav:"currentPage"`
	Metadata    string `dynamodbav:"metadata,omitempty"`
	SubmittedAt int64  `dynamodbav:"submittedAt"`
	V           int    `dynamodbav:"v"`
}

// NewSummary constructs a fresh summary with currentPage = 0, the given
// caller-supplied metadata, and the current schema version.
func NewSummary(id string, metadata string) Summary {
	return Summary{
		ID:          id,
		CurrentPage: 0,
		Metadata:    metadata,
		SubmittedAt: nowMillis(),
		V:           SchemaVersion,
	}
}

// Item marshals the summary to a DynamoDB attribute map ready for PutItem.
func (s Summary) Item() (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMap(s)
}

// SummaryFromItem unmarshals a DynamoDB attribute map into a Summary.
func SummaryFromItem(item map[string]types.AttributeValue) (Summary, error) {
	var s Summary
	if err := attributevalue.UnmarshalMap(item, &s); err != nil {
		return Summary{}, err
	}
	return s, nil
}

// Page is one numbered data page holding a bounded, append-only sequence of
// opaque caller values (§3). Values are carried as opaque strings: callers
// are responsible for their own encoding (JSON, base64, ...); the protocol
// never interprets an element's content.
type Page struct {
	ID          string   `dynamodbav:"id"`
	DataList    []string `dynamodbav:"data_list"`
	SubmittedAt int64    `dynamodbav:"submittedAt"`
	V           int      `dynamodbav:"v"`
}

// NewPage constructs a fresh, empty data page for the given key.
func NewPage(id string) Page {
	return Page{
		ID:          id,
		DataList:    []string{},
		SubmittedAt: nowMillis(),
		V:           SchemaVersion,
	}
}

// Item marshals the page to a DynamoDB attribute map ready for PutItem.
func (p Page) Item() (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMap(p)
}

// PageFromItem unmarshals a DynamoDB attribute map into a Page.
func PageFromItem(item map[string]types.AttributeValue) (Page, error) {
	var p Page
	if err := attributevalue.UnmarshalMap(item, &p); err != nil {
		return Page{}, err
	}
	return p, nil
}

// nowMillis is the source of submittedAt timestamps: milliseconds since
// epoch, per §3.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}
