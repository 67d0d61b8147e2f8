package complaint

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/tailscale/hujson"
)

// GeneralProduct is the category of any model missing from the catalog.
const GeneralProduct = "GENERAL"

// SpinnerProduct is the category of spin dryers, recognized without a catalog.
const SpinnerProduct = "SPINNER"

// Catalog maps upper-case model codes to their product line.
// A nil Catalog knows only the spin dryer rule.
type Catalog map[string]string

// Product resolves the product line of a model code.
// Spin dryers are matched by substring since dealers write the code loosely.
func (c Catalog) Product(model string) string {
	m := strings.ToUpper(strings.TrimSpace(model))
	if strings.Contains(m, "SD-555") || strings.Contains(m, "SUPER SPIN") {
		return SpinnerProduct
	}
	if p, ok := c[m]; ok {
		return p
	}
	return GeneralProduct
}

// LoadCatalog reads a JSON-with-comments object of model code to product
// line. An empty path or a missing file gives a nil Catalog.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("⚠️  Product catalog %s not found, every model is %s", path, GeneralProduct)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read product catalog: %w", err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid product catalog %s: %w", path, err)
	}
	var raw map[string]string
	if err := json.Unmarshal(standardized, &raw); err != nil {
		return nil, fmt.Errorf("invalid product catalog %s: %w", path, err)
	}

	c := make(Catalog, len(raw))
	for model, product := range raw {
		c[strings.ToUpper(strings.TrimSpace(model))] = strings.ToUpper(strings.TrimSpace(product))
	}
	return c, nil
}
