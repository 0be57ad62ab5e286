package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/trustbrowser/internal/model"
)

var testExplorers = Explorers{
	Current: "https://testnet.example.io",
	Legacy:  "https://node.example.org",
}

func TestNormalize_CurrentWinsOverLegacy(t *testing.T) {
	n := NewNormalizer(testExplorers)
	rec := n.Normalize("penicillin", Responses{
		CurrentQuery: []byte(`{"results":[{"title":"Penicillin (v7)","description":"Discovered by Fleming","ual":"did:dkg:otp/0xabc/7","id":"0x77"}]}`),
		Search:       []byte(`{"data":[{"title":"Penicillin (v6)","description":"legacy","ual":"did:dkg:otp/0xdef/6"}]}`),
	})

	assert.Equal(t, "Penicillin (v7)", rec.Title)
	assert.Equal(t, "Discovered by Fleming", rec.Explanation)
	assert.Equal(t, "0x77", rec.SourceHash)
	assert.Equal(t, model.SourceGraph, rec.SourceKind)
	assert.Equal(t, "did:dkg:otp/0xabc/7", rec.AssetID)
	assert.Equal(t, "https://testnet.example.io/explore?ual=did%3Adkg%3Aotp%2F0xabc%2F7", rec.ExplorerURL)
}

func TestNormalize_CurrentSingleObjectAndAliases(t *testing.T) {
	n := NewNormalizer(testExplorers)
	rec := n.Normalize("q", Responses{
		CurrentQuery: []byte(`{"results":{"name":"Named","text":"Body text","asset":{"ual":"did:x/1"}}}`),
	})

	assert.Equal(t, "Named", rec.Title)
	assert.Equal(t, "Body text", rec.Explanation)
	assert.Equal(t, "did:x/1", rec.AssetID)
	assert.Equal(t, model.PlaceholderHash, rec.SourceHash)
}

func TestNormalize_EmptyCurrentFallsThrough(t *testing.T) {
	n := NewNormalizer(testExplorers)
	rec := n.Normalize("fleming", Responses{
		CurrentQuery: []byte(`{"results":[]}`),
		Search:       []byte(`{"data":[]}`),
		AssetsSearch: []byte(`{"data":[{"headline":"Alexander Fleming","articleBody":"Scottish physician","ual":"did:dkg:otp/0x1/42","id":12}]}`),
	})

	assert.Equal(t, "Alexander Fleming", rec.Title)
	assert.Equal(t, "Scottish physician", rec.Explanation)
	assert.Equal(t, "12", rec.SourceHash)
	assert.Equal(t, "https://node.example.org/graph/explorer?ual=did%3Adkg%3Aotp%2F0x1%2F42", rec.ExplorerURL)
}

func TestNormalize_GraphQueryShape(t *testing.T) {
	n := NewNormalizer(testExplorers)
	rec := n.Normalize("mould", Responses{
		GraphSearch: []byte(`not json`),
		GraphQuery:  []byte(`{"data":[{"headline":"Mould juice","@id":"urn:1","ual":"did:dkg:otp/0x2/5"}]}`),
	})

	assert.Equal(t, "Mould juice", rec.Title)
	assert.Equal(t, "", rec.Explanation)
	assert.Equal(t, "urn:1", rec.SourceHash)
	assert.Equal(t, "did:dkg:otp/0x2/5", rec.AssetID)
}

func TestNormalize_TitleDefaultsToQuery(t *testing.T) {
	n := NewNormalizer(testExplorers)
	rec := n.Normalize("raw query", Responses{
		Search: []byte(`{"data":[{"title":null,"headline":"","description":"only a description"}]}`),
	})

	assert.Equal(t, "raw query", rec.Title)
	assert.Equal(t, "only a description", rec.Explanation)
	assert.Empty(t, rec.AssetID)
	assert.Empty(t, rec.ExplorerURL, "no explorer link without an asset id")
}

func TestNormalize_NoExplorerBase(t *testing.T) {
	n := NewNormalizer(Explorers{})
	rec := n.Normalize("q", Responses{
		Search: []byte(`{"data":{"title":"T","ual":"did:x/9"}}`),
	})

	assert.Equal(t, "did:x/9", rec.AssetID)
	assert.Empty(t, rec.ExplorerURL)
}

func TestNormalize_GeneratedFallback(t *testing.T) {
	n := NewNormalizer(testExplorers)
	rec := n.Normalize("q", Responses{
		Search:    []byte(`{"data":[]}`),
		Generated: &GeneratedAnswer{Title: "Gen", Explanation: "Generated text", SourceHash: "0x0"},
	})

	assert.Equal(t, model.SourceGenerated, rec.SourceKind)
	assert.Equal(t, "Gen", rec.Title)
	assert.Empty(t, rec.AssetID)
}

func TestNormalize_TotalFailure(t *testing.T) {
	n := NewNormalizer(testExplorers)
	rec := n.Normalize("q", Responses{})

	assert.Equal(t, model.SourceError, rec.SourceKind)
	assert.Equal(t, model.ZeroFingerprint, rec.SourceHash)
	assert.Equal(t, model.ErrorExplanation, rec.Explanation)
	assert.Empty(t, rec.AssetID)
}

func TestNormalize_EmptyItemIsNoMatch(t *testing.T) {
	n := NewNormalizer(testExplorers)
	rec := n.Normalize("q", Responses{
		CurrentQuery: []byte(`{"results":[{}]}`),
		Search:       []byte(`{"data":[{"title":"Legacy"}]}`),
	})

	assert.Equal(t, "Legacy", rec.Title)
}
