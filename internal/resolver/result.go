package resolver

import (
	"encoding/json"

	"mercado/internal/models"
)

type Kind int

const (
	KindResolved Kind = iota
	KindAmbiguous
	KindNotFound
)

// Option is one surviving candidate offered back to the caller for
// disambiguation.
type Option struct {
	Nome  string  `json:"nome"`
	Preco float64 `json:"preco"`
}

// Result is the outcome of one resolution: exactly one variant is populated.
// The zero value is not meaningful; use the constructors.
type Result struct {
	Kind    Kind
	Product models.Product
	Price   float64
	Reason  string
	Options []Option
}

// Resolved carries a price that was validated against the price store. There
// is no other way to construct a resolved result with a price.
func Resolved(product models.Product, price float64, reason string) Result {
	return Result{Kind: KindResolved, Product: product, Price: price, Reason: reason}
}

func Ambiguous(options []Option) Result {
	return Result{Kind: KindAmbiguous, Options: options}
}

func NotFound(reason string) Result {
	return Result{Kind: KindNotFound, Reason: reason}
}

// MarshalJSON renders the tool-contract wire shape:
// {ok:true,nome,preco,razao} | {ok:true,opcoes:[...]} | {ok:false,motivo}.
func (r Result) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case KindResolved:
		return json.Marshal(struct {
			OK    bool    `json:"ok"`
			Nome  string  `json:"nome"`
			Preco float64 `json:"preco"`
			Razao string  `json:"razao"`
		}{true, r.Product.Name, r.Price, r.Reason})
	case KindAmbiguous:
		return json.Marshal(struct {
			OK     bool     `json:"ok"`
			Opcoes []Option `json:"opcoes"`
		}{true, r.Options})
	default:
		return json.Marshal(struct {
			OK     bool   `json:"ok"`
			Motivo string `json:"motivo"`
		}{false, r.Reason})
	}
}
