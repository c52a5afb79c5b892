package controllers

import (
	"net/http"

	gql "github.com/graphql-go/graphql"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vendora/vendora/app/repositories"
	"github.com/vendora/vendora/app/services"
	"github.com/vendora/vendora/pkg/graphql"
	"github.com/vendora/vendora/pkg/logger"
)

// NewCatalogHandler exposes a read-only GraphQL view of the catalogue:
//
//	{ products(search: "coffee") { id name price stock } }
//	{ product(id: "...") { name description } }
func NewCatalogHandler(products *services.ProductService) http.HandlerFunc {
	productType := gql.NewObject(gql.ObjectConfig{
		Name: "Product",
		Fields: gql.Fields{
			"id":          &gql.Field{Type: gql.String},
			"name":        &gql.Field{Type: gql.String},
			"description": &gql.Field{Type: gql.String},
			"price":       &gql.Field{Type: gql.Float},
			"stock":       &gql.Field{Type: gql.Int},
			"category":    &gql.Field{Type: gql.String},
			"imageUrl":    &gql.Field{Type: gql.String},
		},
	})

	rootQuery := gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"products": &gql.Field{
				Type: gql.NewList(productType),
				Args: gql.FieldConfigArgument{
					"category": &gql.ArgumentConfig{Type: gql.String},
					"search":   &gql.ArgumentConfig{Type: gql.String},
					"page":     &gql.ArgumentConfig{Type: gql.Int, DefaultValue: 1},
					"limit":    &gql.ArgumentConfig{Type: gql.Int, DefaultValue: 20},
				},
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					f := repositories.ProductFilter{
						Page:  1,
						Limit: 20,
					}
					if v, ok := p.Args["category"].(string); ok {
						f.Category = v
					}
					if v, ok := p.Args["search"].(string); ok {
						f.Search = v
					}
					if v, ok := p.Args["page"].(int); ok {
						f.Page = int64(v)
					}
					if v, ok := p.Args["limit"].(int); ok {
						f.Limit = int64(v)
					}

					result, err := products.List(p.Context, f)
					if err != nil {
						return nil, err
					}
					return toMaps(result), nil
				},
			},
			"product": &gql.Field{
				Type: productType,
				Args: gql.FieldConfigArgument{
					"id": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.String)},
				},
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					raw, _ := p.Args["id"].(string)
					id, err := primitive.ObjectIDFromHex(raw)
					if err != nil {
						return nil, err
					}
					product, err := products.Get(p.Context, id)
					if err != nil {
						return nil, err
					}
					return productMap(product.ID.Hex(), product.Name, product.Description,
						product.Price, product.Stock, product.Category, product.ImageURL), nil
				},
			},
		},
	})

	schema, err := graphql.NewSchema(rootQuery)
	if err != nil {
		logger.Error("graphql: build catalogue schema", "error", err)
		return func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "graphql schema unavailable", http.StatusInternalServerError)
		}
	}
	return graphql.Handler(schema)
}

func toMaps(page services.ProductPage) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(page.Products))
	for _, p := range page.Products {
		out = append(out, productMap(p.ID.Hex(), p.Name, p.Description,
			p.Price, p.Stock, p.Category, p.ImageURL))
	}
	return out
}

func productMap(id, name, description string, price float64, stock int64, category, imageURL string) map[string]interface{} {
	return map[string]interface{}{
		"id":          id,
		"name":        name,
		"description": description,
		"price":       price,
		"stock":       int(stock),
		"category":    category,
		"imageUrl":    imageURL,
	}
}
