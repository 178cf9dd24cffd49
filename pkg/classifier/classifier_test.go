package classifier

import (
	"testing"

	"github.com/David-Botos/form-ingress/pkg/model"
)

func TestClassifyPack(t *testing.T) {
	cases := []struct {
		text     string
		category model.PackCategory
		price    int // 0 means unset
	}{
		{"Pack Essentiel à 10 000 FCFA", model.PackEssentiel, 10000},
		{"PREMIUM - 25000 fcfa", model.PackPremium, 25000},
		{"Pack standard 15 000 FCFA / mois", model.PackStandard, 15000},
		{"Avantage", model.PackAvantage, 0},
		{"Je ne sais pas encore", model.PackAutre, 0},
		{"", model.PackAutre, 0},
		{"Offre spéciale 5 000 FCFA", model.PackAutre, 5000},
		// Essentiel is checked before Premium
		{"essentiel ou premium", model.PackEssentiel, 0},
	}

	for _, tc := range cases {
		got := ClassifyPack(tc.text)
		if got.Category != tc.category {
			t.Fatalf("ClassifyPack(%q).Category = %q, want %q", tc.text, got.Category, tc.category)
		}
		switch {
		case tc.price == 0 && got.Price != nil:
			t.Fatalf("ClassifyPack(%q).Price = %d, want unset", tc.text, *got.Price)
		case tc.price != 0 && got.Price == nil:
			t.Fatalf("ClassifyPack(%q).Price unset, want %d", tc.text, tc.price)
		case tc.price != 0 && *got.Price != tc.price:
			t.Fatalf("ClassifyPack(%q).Price = %d, want %d", tc.text, *got.Price, tc.price)
		}
	}
}

func TestClassifyPayment(t *testing.T) {
	cases := []struct {
		text string
		want model.PaymentCategory
	}{
		{"Orange Money", model.PaymentMobileMoney},
		{"par orange money ou wave", model.PaymentMobileMoney},
		{"MPESA", model.PaymentMobileMoney},
		{"Carte bancaire", model.PaymentCard},
		{"Western Union", model.PaymentInternational},
		{"werstern union", model.PaymentInternational},
		{"Crypto (USDT)", model.PaymentCrypto},
		{"Je n'ai pas de moyen de paiement", model.PaymentNone},
		{"PayPal", model.PaymentOther},
		{"", model.PaymentOther},
		// Mobile money wins over card when both are named
		{"carte bancaire ou mobile money", model.PaymentMobileMoney},
	}

	for _, tc := range cases {
		if got := ClassifyPayment(tc.text); got != tc.want {
			t.Fatalf("ClassifyPayment(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestClassifyEmail(t *testing.T) {
	cases := []struct {
		address string
		domain  string
		kind    string
	}{
		{"jean@gmail.com", "gmail.com", EmailGmail},
		{"a.b@Yahoo.fr", "yahoo.fr", EmailYahoo},
		{"x@hotmail.fr", "hotmail.fr", EmailOutlook},
		{"x@live.com", "live.com", EmailOutlook},
		{"contact@entreprise.com", "entreprise.com", EmailProfessional},
		{"someone@univ.cm", "univ.cm", EmailOther},
		{"pas-d-adresse", "", EmailOther},
	}

	for _, tc := range cases {
		domain, kind := ClassifyEmail(tc.address)
		if domain != tc.domain || kind != tc.kind {
			t.Fatalf("ClassifyEmail(%q) = (%q, %q), want (%q, %q)", tc.address, domain, kind, tc.domain, tc.kind)
		}
	}
}

func TestRuleSetMatchReportsRule(t *testing.T) {
	rule, ok := PaymentRules.Match("  Flooz  ")
	if !ok || rule.Name != "mobile_money" {
		t.Fatalf("expected mobile_money rule, got %+v (ok=%v)", rule, ok)
	}
	if _, ok := PaymentRules.Match("cash"); ok {
		t.Fatal("expected no rule for cash")
	}
}

func TestRuleSetOrderIsExplicit(t *testing.T) {
	rs := RuleSet[int]{
		Rules: []Rule[int]{
			{Name: "a", Match: Contains("x"), Result: 1},
			{Name: "b", Match: Contains("x"), Result: 2},
		},
		Default: -1,
	}
	if got := rs.Classify("X"); got != 1 {
		t.Fatalf("expected first rule to win, got %d", got)
	}
	if got := rs.Classify("y"); got != -1 {
		t.Fatalf("expected default, got %d", got)
	}
}
