package tool

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
	"gopkg.in/yaml.v3"
)

//go:embed data/products.yaml
var defaultCatalogRaw []byte

// Catalog is an ordered, read-only product list. The first product is the
// fallback recommendation.
type Catalog struct {
	products []contractx.Product
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var products []contractx.Product
	if err := yaml.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("%w: product catalog: %v", contractx.ErrParse, err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: product catalog is empty", contractx.ErrValidation)
	}
	for i := range products {
		for j, kw := range products[i].Keywords {
			products[i].Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
		}
	}
	return &Catalog{products: products}, nil
}

func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogRaw)
}

// LoadCatalog reads a YAML catalog file, or the embedded one when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read product catalog: %w", err)
	}
	return ParseCatalog(raw)
}

func (c *Catalog) Products() []contractx.Product {
	return append([]contractx.Product(nil), c.products...)
}

// Recommend returns the first product with a keyword contained in text.
func (c *Catalog) Recommend(text string) contractx.Product {
	q := strings.ToLower(text)
	for _, p := range c.products {
		for _, kw := range p.Keywords {
			if kw != "" && strings.Contains(q, kw) {
				return p
			}
		}
	}
	return c.products[0]
}

type RecommendProductTool struct {
	catalog *Catalog
}

func NewRecommendProductTool(catalog *Catalog) (*RecommendProductTool, error) {
	if catalog == nil {
		return nil, errors.New("product catalog is required")
	}
	return &RecommendProductTool{catalog: catalog}, nil
}

func (t *RecommendProductTool) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: contractx.ToolRecommendProduct,
		Desc: "Recommend an insurance product from the catalog for a user query.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			contractx.ArgUserText: {Type: schema.String, Desc: "Original user query", Required: true},
		}),
	}
}

func (t *RecommendProductTool) Invoke(ctx context.Context, args map[string]any) contractx.ToolResult {
	text, err := stringArg(args, contractx.ArgUserText)
	if err != nil {
		return contractx.ToolFailure(contractx.ToolRecommendProduct, err)
	}
	product := t.catalog.Recommend(text)
	return contractx.ToolSuccess(contractx.ToolRecommendProduct, map[string]any{
		contractx.KeyProduct: product,
	})
}
