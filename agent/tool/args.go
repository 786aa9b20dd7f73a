package tool

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/insurance-media-router/agent/contract"
)

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("%w: %s is required", contractx.ErrValidation, key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", contractx.ErrValidation, key)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: %s is required", contractx.ErrValidation, key)
	}
	return s, nil
}

// productArg accepts a Product value or its JSON-shaped map form.
func productArg(args map[string]any) (contractx.Product, error) {
	raw, ok := args[contractx.ArgProduct]
	if !ok || raw == nil {
		return contractx.Product{}, fmt.Errorf("%w: %s is required", contractx.ErrValidation, contractx.ArgProduct)
	}

	var p contractx.Product
	switch v := raw.(type) {
	case contractx.Product:
		p = v
	case *contractx.Product:
		p = *v
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return contractx.Product{}, fmt.Errorf("%w: product: %v", contractx.ErrValidation, err)
		}
		if err := json.Unmarshal(b, &p); err != nil {
			return contractx.Product{}, fmt.Errorf("%w: product: %v", contractx.ErrValidation, err)
		}
	default:
		return contractx.Product{}, fmt.Errorf("%w: product must be an object, got %T", contractx.ErrValidation, raw)
	}

	if strings.TrimSpace(p.Name) == "" {
		return contractx.Product{}, fmt.Errorf("%w: product name is required", contractx.ErrValidation)
	}
	return p, nil
}

// artifactArgs returns the run's bucket and prefix.
func artifactArgs(args map[string]any) (string, string, error) {
	bucket, err := stringArg(args, contractx.ArgBucket)
	if err != nil {
		return "", "", err
	}
	prefix, err := stringArg(args, contractx.ArgPrefix)
	if err != nil {
		return "", "", err
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

func artifactParams() map[string]*schema.ParameterInfo {
	return map[string]*schema.ParameterInfo{
		contractx.ArgBucket: {Type: schema.String, Desc: "Artifact bucket", Required: true},
		contractx.ArgPrefix: {Type: schema.String, Desc: "Run namespace prefix", Required: true},
	}
}

func productParam() *schema.ParameterInfo {
	return &schema.ParameterInfo{
		Type: schema.Object,
		Desc: "Recommended product",
		SubParams: map[string]*schema.ParameterInfo{
			"name":              {Type: schema.String, Required: true},
			"short_description": {Type: schema.String},
			"benefits":          {Type: schema.Array, ElemInfo: &schema.ParameterInfo{Type: schema.String}},
		},
		Required: true,
	}
}
