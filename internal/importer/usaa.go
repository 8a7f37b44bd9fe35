package importer

import (
	"strings"

	"github.com/cleared-dev/budget/internal/model"
)

const (
	usaaMinFields = 5
	usaaColDate   = 0
	usaaColDesc   = 1
	usaaColAmount = 4

	// Card payments show up in the Capital One feed already.
	usaaCounterpartIssuer = "Capital One"
)

func (p *Parser) parseUSAARow(rec []string) (model.Transaction, bool, error) {
	if err := requireFields(OriginUSAA, rec, usaaMinFields); err != nil {
		return model.Transaction{}, false, err
	}

	if strings.Contains(rec[usaaColDesc], usaaCounterpartIssuer) {
		return model.Transaction{}, false, nil
	}

	amount, err := parseAmount(OriginUSAA, "amount", rec[usaaColAmount])
	if err != nil {
		return model.Transaction{}, false, err
	}

	date, err := parseDate(OriginUSAA, rec[usaaColDate])
	if err != nil {
		return model.Transaction{}, false, err
	}

	return model.Transaction{
		Amount:      amount,
		Date:        date,
		Card:        model.CardUSAA,
		Description: p.normalizer.Normalize(rec[usaaColDesc]),
	}, true, nil
}
