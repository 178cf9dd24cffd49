package classifier

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/David-Botos/form-ingress/pkg/model"
)

// packPricePattern captures the leading thousands before "000 fcfa"
var packPricePattern = regexp.MustCompile(`(\d+\s*\d*)\s*000\s*fcfa`)

// PackRules classify the offer answer; tier names are checked most specific first
var PackRules = RuleSet[model.PackCategory]{
	Rules: []Rule[model.PackCategory]{
		{Name: "essentiel", Match: Contains("essentiel"), Result: model.PackEssentiel},
		{Name: "premium", Match: Contains("premium"), Result: model.PackPremium},
		{Name: "standard", Match: Contains("standard"), Result: model.PackStandard},
		{Name: "avantage", Match: Contains("avantage"), Result: model.PackAvantage},
	},
	Default: model.PackAutre,
}

// PaymentRules classify the payment answer
var PaymentRules = RuleSet[model.PaymentCategory]{
	Rules: []Rule[model.PaymentCategory]{
		{
			Name: "mobile_money",
			Match: Contains("mobile money", "orange money", "mtn money", "wave", "airtel money",
				"moov", "flooz", "tmoney", "lumicash", "mpesa"),
			Result: model.PaymentMobileMoney,
		},
		{Name: "card", Match: Contains("carte bancaire"), Result: model.PaymentCard},
		{
			Name:   "international_transfer",
			Match:  Contains("western union", "money gram", "werstern union"),
			Result: model.PaymentInternational,
		},
		{Name: "crypto", Match: Contains("crypto"), Result: model.PaymentCrypto},
		{Name: "no_means", Match: Contains("n'ai pas", "n'es pas"), Result: model.PaymentNone},
	},
	Default: model.PaymentOther,
}

// Email kinds
const (
	EmailGmail        = "Gmail"
	EmailYahoo        = "Yahoo"
	EmailOutlook      = "Outlook"
	EmailProfessional = "Professionnel"
	EmailOther        = "Autre"
)

// EmailRules classify an email domain
var EmailRules = RuleSet[string]{
	Rules: []Rule[string]{
		{Name: "gmail", Match: Contains("gmail"), Result: EmailGmail},
		{Name: "yahoo", Match: Contains("yahoo"), Result: EmailYahoo},
		{Name: "outlook", Match: Contains("outlook", "hotmail", "live"), Result: EmailOutlook},
		{Name: "professional", Match: Contains(".com", ".org", ".net"), Result: EmailProfessional},
	},
	Default: EmailOther,
}

// ClassifyPack derives the pack category and price from the offer answer.
// The price stays nil when no amount is found.
func ClassifyPack(text string) model.PackClassification {
	return model.PackClassification{
		Category: PackRules.Classify(text),
		Price:    extractPrice(normalize(text)),
	}
}

func extractPrice(text string) *int {
	match := packPricePattern.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	digits := strings.Join(strings.Fields(match[1]), "")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return model.IntPtr(n * 1000)
}

// ClassifyPayment buckets the payment answer
func ClassifyPayment(text string) model.PaymentCategory {
	return PaymentRules.Classify(text)
}

// ClassifyEmail returns the domain of an address and its kind.
// Addresses without a domain get an empty domain and EmailOther.
func ClassifyEmail(address string) (domain, kind string) {
	if at := strings.Index(address, "@"); at >= 0 {
		domain = strings.ToLower(strings.TrimSpace(address[at+1:]))
	}
	return domain, EmailRules.Classify(domain)
}
