package policy

import (
	"fmt"
	"strings"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

// DecisionCode classifies a ladder decision for clients and metrics.
type DecisionCode string

const (
	DecisionNoPriorOffers       DecisionCode = "no_prior_offers"
	DecisionLadderUp            DecisionCode = "ladder_up"
	DecisionConversionException DecisionCode = "conversion_exception"
	DecisionUncategorizedJob    DecisionCode = "uncategorized_job"
	DecisionOfferLimitReached   DecisionCode = "offer_limit_reached"
	DecisionCategoryNotHigher   DecisionCode = "category_not_higher"
)

// LadderDecision is the structured outcome of a ladder check. A negative
// decision is a normal result, not an error.
type LadderDecision struct {
	Eligible          bool                 `json:"eligible"`
	Code              DecisionCode         `json:"code"`
	Reason            string               `json:"reason"`
	BlockingCategory  *models.Category     `json:"blocking_category,omitempty"`
	AllowedCategories []models.Category    `json:"allowed_categories,omitempty"`
	CurrentPlacements []models.PlacedOffer `json:"current_placements,omitempty"`
}

// LadderPolicy configures the ladder evaluator.
type LadderPolicy struct {
	Hierarchy          Hierarchy
	MaxOffers          int
	AllowUncategorized bool
}

// LadderEvaluator decides whether a student may apply to a job given the offers they hold.
type LadderEvaluator struct {
	policy LadderPolicy
}

// NewLadderEvaluator builds an evaluator. A non-positive MaxOffers defaults to 2.
func NewLadderEvaluator(policy LadderPolicy) *LadderEvaluator {
	if policy.MaxOffers <= 0 {
		policy.MaxOffers = 2
	}
	if len(policy.Hierarchy.order) == 0 {
		policy.Hierarchy = DefaultHierarchy()
	}
	return &LadderEvaluator{policy: policy}
}

// Hierarchy exposes the configured ranking.
func (e *LadderEvaluator) Hierarchy() Hierarchy {
	return e.policy.Hierarchy
}

// MaxOffers exposes the configured offer limit.
func (e *LadderEvaluator) MaxOffers() int {
	return e.policy.MaxOffers
}

// Evaluate applies the ladder rules to a target job category.
func (e *LadderEvaluator) Evaluate(summary models.PlacementSummary, target *models.Category) LadderDecision {
	h := e.policy.Hierarchy
	offers := e.governed(summary.Offers)

	if target == nil || !h.Known(*target) {
		if e.policy.AllowUncategorized {
			return LadderDecision{Eligible: true, Code: DecisionUncategorizedJob, Reason: "job has no category; placement policy not applied"}
		}
		return LadderDecision{Code: DecisionUncategorizedJob, Reason: "job has no category; contact the placement office", CurrentPlacements: offers}
	}

	if len(offers) >= e.policy.MaxOffers {
		return LadderDecision{
			Code:              DecisionOfferLimitReached,
			Reason:            fmt.Sprintf("you already have %d job offers; maximum limit reached", len(offers)),
			CurrentPlacements: offers,
			AllowedCategories: []models.Category{},
		}
	}

	if len(offers) == 0 {
		return LadderDecision{Eligible: true, Code: DecisionNoPriorOffers, Reason: "no existing placements"}
	}

	var blockers []models.PlacedOffer
	usedException := false
	for _, offer := range offers {
		ok, exception := e.permits(offer, *target)
		if !ok {
			blockers = append(blockers, offer)
			continue
		}
		usedException = usedException || exception
	}
	if len(blockers) > 0 {
		return e.blocked(blockers, offers)
	}

	// A single offer is rechecked against its allowed set; the exception is honoured here too.
	if len(offers) == 1 {
		offer := offers[0]
		if !containsCategory(h.AllowedAbove(*offer.Category), *target) {
			if _, exception := e.permits(offer, *target); !exception {
				return e.blocked(offers, offers)
			}
		}
	}

	highest := e.highestOffer(offers)
	if usedException {
		return LadderDecision{
			Eligible: true,
			Code:     DecisionConversionException,
			Reason: fmt.Sprintf("%s internship with conversion at %s permits a %s application",
				h.DisplayName(*highest.Category), highest.CompanyName, h.DisplayName(*target)),
			CurrentPlacements: offers,
		}
	}
	return LadderDecision{
		Eligible: true,
		Code:     DecisionLadderUp,
		Reason: fmt.Sprintf("%s is above your current %s placement at %s",
			h.DisplayName(*target), h.DisplayName(*highest.Category), highest.CompanyName),
		CurrentPlacements: offers,
	}
}

// CanApplyTo returns every category the summary still permits, lowest first.
func (e *LadderEvaluator) CanApplyTo(summary models.PlacementSummary) []models.Category {
	out := []models.Category{}
	for _, c := range e.policy.Hierarchy.Categories() {
		c := c
		if e.Evaluate(summary, &c).Eligible {
			out = append(out, c)
		}
	}
	return out
}

// permits reports whether target climbs above offer, and whether it did so via the conversion exception.
func (e *LadderEvaluator) permits(offer models.PlacedOffer, target models.Category) (ok bool, exception bool) {
	h := e.policy.Hierarchy
	if h.Level(target) > h.Level(*offer.Category) {
		return true, false
	}
	if offer.IsInternship && offer.HasConversionOption && *offer.Category == models.CategoryDream &&
		(target == models.CategoryMass || target == models.CategoryCore) {
		return true, true
	}
	return false, false
}

func (e *LadderEvaluator) blocked(blockers, offers []models.PlacedOffer) LadderDecision {
	h := e.policy.Hierarchy
	blocking := e.highestOffer(blockers)
	category := *blocking.Category
	allowed := h.AllowedAbove(category)

	reason := fmt.Sprintf("you are already placed in a %s category job at %s; ", h.DisplayName(category), blocking.CompanyName)
	if len(allowed) == 0 {
		reason += "no higher category is available"
	} else {
		names := make([]string, len(allowed))
		for i, c := range allowed {
			names[i] = h.DisplayName(c)
		}
		reason += "you can only apply to " + strings.Join(names, " or ") + " category jobs"
	}

	return LadderDecision{
		Code:              DecisionCategoryNotHigher,
		Reason:            reason,
		BlockingCategory:  &category,
		AllowedCategories: allowed,
		CurrentPlacements: offers,
	}
}

func (e *LadderEvaluator) highestOffer(offers []models.PlacedOffer) models.PlacedOffer {
	h := e.policy.Hierarchy
	best := offers[0]
	for _, o := range offers[1:] {
		if h.Level(*o.Category) > h.Level(*best.Category) {
			best = o
		}
	}
	return best
}

// governed drops offers whose category is missing or outside the hierarchy.
func (e *LadderEvaluator) governed(offers []models.PlacedOffer) []models.PlacedOffer {
	out := make([]models.PlacedOffer, 0, len(offers))
	for _, o := range offers {
		if o.Category != nil && e.policy.Hierarchy.Known(*o.Category) {
			out = append(out, o)
		}
	}
	return out
}

func containsCategory(cs []models.Category, target models.Category) bool {
	for _, c := range cs {
		if c == target {
			return true
		}
	}
	return false
}
