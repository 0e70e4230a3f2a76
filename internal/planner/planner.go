// Package planner expands a batch selection into the ordered list of
// generation jobs.
package planner

import (
	"fmt"
	"math"
	"strings"

	"mockupstudio/internal/domain"
)

// LimitMode decides what happens when a plan exceeds Limit.Max.
type LimitMode string

const (
	LimitHard     LimitMode = "hard"
	LimitAdvisory LimitMode = "advisory"
)

// DefaultMaxJobs is used when Limit.Max is not positive.
const DefaultMaxJobs = 1000

// AbsoluteMaxJobs bounds every plan, advisory or not.
const AbsoluteMaxJobs = 10000

// Limit bounds the size of a plan.
type Limit struct {
	Max  int
	Mode LimitMode
}

func (l Limit) max() int {
	if l.Max <= 0 {
		return DefaultMaxJobs
	}
	return l.Max
}

// Plan is the validated job list. Warning is set when an advisory limit was
// exceeded.
type Plan struct {
	Jobs    []domain.GenerationJob
	Warning string
}

// Count returns the number of jobs the selection would produce, or an error
// when a product mode is unknown. Totals that do not fit an int saturate at
// math.MaxInt.
func Count(sel domain.BatchSelection) (int, error) {
	total := 0
	for _, p := range sel.Products {
		modes := p.Mode.RenderModes()
		if modes == nil {
			return 0, domain.NewValidationError(domain.CodeInvalidMode, "product %q has invalid mode %q", p.Category, p.Mode)
		}
		if total == math.MaxInt || sel.VariationCount > (math.MaxInt-total)/len(modes) {
			total = math.MaxInt
			continue
		}
		total += len(modes) * sel.VariationCount
	}
	return total, nil
}

// Build validates sel and returns jobs ordered by product, then render mode
// (standard before 3d), then variation.
func Build(sel domain.BatchSelection, limit Limit) (Plan, error) {
	if len(sel.Products) == 0 {
		return Plan{}, domain.NewValidationError(domain.CodeNoProducts, "select at least one product")
	}
	if sel.VariationCount < 1 {
		return Plan{}, domain.NewValidationError(domain.CodeInvalidVariations, "variation count must be at least 1, got %d", sel.VariationCount)
	}

	seen := make(map[string]struct{}, len(sel.Products))
	for _, p := range sel.Products {
		key := strings.TrimSpace(p.Category)
		if key == "" {
			return Plan{}, domain.NewValidationError(domain.CodeInvalidInput, "product category is required")
		}
		if _, dup := seen[key]; dup {
			return Plan{}, domain.NewValidationError(domain.CodeDuplicateProduct, "product %q selected more than once", key)
		}
		seen[key] = struct{}{}
	}

	total, err := Count(sel)
	if err != nil {
		return Plan{}, err
	}

	if total > AbsoluteMaxJobs {
		return Plan{}, domain.NewValidationError(domain.CodeBatchTooLarge, "batch exceeds the maximum of %d jobs", AbsoluteMaxJobs)
	}

	var plan Plan
	if ceiling := limit.max(); total > ceiling {
		if limit.Mode != LimitAdvisory {
			return Plan{}, domain.NewValidationError(domain.CodeBatchTooLarge, "batch of %d jobs exceeds the limit of %d", total, ceiling)
		}
		plan.Warning = fmt.Sprintf("batch of %d jobs exceeds the recommended limit of %d", total, ceiling)
	}

	plan.Jobs = make([]domain.GenerationJob, 0, total)
	for _, p := range sel.Products {
		for _, mode := range p.Mode.RenderModes() {
			for v := 1; v <= sel.VariationCount; v++ {
				plan.Jobs = append(plan.Jobs, domain.GenerationJob{
					Category:   strings.TrimSpace(p.Category),
					RenderMode: mode,
					Variation:  v,
					Variations: sel.VariationCount,
				})
			}
		}
	}
	return plan, nil
}
