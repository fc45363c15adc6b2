package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for review
// documents. Strain and effects get English stemming; brand, location
// and terpenes use the simple analyzer so compound names survive;
// owner and type fields are keywords for exact filtering.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields (full-text searchable) ---

	strainFieldMapping := bleve.NewTextFieldMapping()
	strainFieldMapping.Analyzer = en.AnalyzerName
	strainFieldMapping.Store = true
	strainFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("strain", strainFieldMapping)

	effectsFieldMapping := bleve.NewTextFieldMapping()
	effectsFieldMapping.Analyzer = en.AnalyzerName
	effectsFieldMapping.Store = true
	effectsFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("effects", effectsFieldMapping)

	flavorFieldMapping := bleve.NewTextFieldMapping()
	flavorFieldMapping.Analyzer = en.AnalyzerName
	flavorFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("flavor", flavorFieldMapping)

	brandFieldMapping := bleve.NewTextFieldMapping()
	brandFieldMapping.Analyzer = simple.Name
	brandFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("brand", brandFieldMapping)

	locationFieldMapping := bleve.NewTextFieldMapping()
	locationFieldMapping.Analyzer = simple.Name
	locationFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("location", locationFieldMapping)

	terpenesFieldMapping := bleve.NewTextFieldMapping()
	terpenesFieldMapping.Analyzer = simple.Name
	terpenesFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("terpenes", terpenesFieldMapping)

	// --- Keyword fields (exact match) ---

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	ownerFieldMapping := bleve.NewTextFieldMapping()
	ownerFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("owner_id", ownerFieldMapping)

	typeFieldMapping := bleve.NewTextFieldMapping()
	typeFieldMapping.Analyzer = keyword.Name
	typeFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("type", typeFieldMapping)

	productTypeFieldMapping := bleve.NewTextFieldMapping()
	productTypeFieldMapping.Analyzer = keyword.Name
	productTypeFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("product_type", productTypeFieldMapping)

	// --- Numeric fields (range queries, sorting) ---

	ratingFieldMapping := bleve.NewNumericFieldMapping()
	ratingFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("rating", ratingFieldMapping)

	createdAtFieldMapping := bleve.NewNumericFieldMapping()
	createdAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdAtFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
