package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MediaContentTypeModel3D is the media content type of an attached 3D model.
const MediaContentTypeModel3D = "MODEL_3D"

// Image is a product image as returned by the catalog.
type Image struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Product is the subset of a catalog product the pipeline needs.
type Product struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	UpdatedAt  time.Time `json:"updated_at"`
	Images     []Image   `json:"images"`
	MediaTypes []string  `json:"media_types"`
}

// HasModel3D reports whether any attached media is a 3D model.
func (p Product) HasModel3D() bool {
	for _, mediaType := range p.MediaTypes {
		if mediaType == MediaContentTypeModel3D {
			return true
		}
	}
	return false
}

// PrimaryImage returns the first image, which the catalog orders as primary.
func (p Product) PrimaryImage() (Image, bool) {
	if len(p.Images) == 0 {
		return Image{}, false
	}
	return p.Images[0], true
}

const productFields = `
	id title updatedAt
	images(first:5){ edges{ node{ id url } } }
	media(first:10){ edges{ node{ mediaContentType } } }
`

const listRecentQuery = `query($n:Int!){
	products(first:$n, sortKey:UPDATED_AT, reverse:true){
		edges{ node{` + productFields + `} }
	}
}`

const getProductQuery = `query($id:ID!){
	product(id:$id){` + productFields + `}
}`

type productNode struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
	Images    struct {
		Edges []struct {
			Node Image `json:"node"`
		} `json:"edges"`
	} `json:"images"`
	Media struct {
		Edges []struct {
			Node struct {
				MediaContentType string `json:"mediaContentType"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"media"`
}

func (n productNode) toProduct() Product {
	p := Product{ID: n.ID, Title: n.Title, UpdatedAt: n.UpdatedAt}
	for _, edge := range n.Images.Edges {
		p.Images = append(p.Images, edge.Node)
	}
	for _, edge := range n.Media.Edges {
		if edge.Node.MediaContentType != "" {
			p.MediaTypes = append(p.MediaTypes, edge.Node.MediaContentType)
		}
	}
	return p
}

// ListRecent returns up to limit products, most recently updated first.
func (c *Client) ListRecent(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("list products: limit must be positive, got %d", limit)
	}
	var data struct {
		Products struct {
			Edges []struct {
				Node productNode `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	}
	if err := c.do(ctx, "list products", listRecentQuery, map[string]any{"n": limit}, &data); err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(data.Products.Edges))
	for _, edge := range data.Products.Edges {
		products = append(products, edge.Node.toProduct())
	}
	return products, nil
}

// GetProduct fetches a single product by GID. It returns ErrProductNotFound
// when the catalog has no such product.
func (c *Client) GetProduct(ctx context.Context, id string) (Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, fmt.Errorf("get product: id required")
	}
	var data struct {
		Product *productNode `json:"product"`
	}
	if err := c.do(ctx, "get product", getProductQuery, map[string]any{"id": id}, &data); err != nil {
		return Product{}, err
	}
	if data.Product == nil {
		return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return data.Product.toProduct(), nil
}
