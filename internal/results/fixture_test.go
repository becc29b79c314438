package results

import (
	"time"

	"github.com/google/uuid"

	"github.com/psi-indicator-engine/internal/domain"
	"github.com/psi-indicator-engine/internal/engine"
)

func testResult(started time.Time) *engine.Result {
	return &engine.Result{
		BatchID:          uuid.New(),
		ReferenceVersion: "2024",
		ReferenceDigest:  "abc123",
		StartedAt:        started,
		FinishedAt:       started.Add(250 * time.Millisecond),
		Encounters: []engine.EncounterResult{
			{
				Index:       0,
				EncounterID: "ENC-1",
				Verdicts: []domain.Verdict{
					domain.Eligible(domain.PSI_11, true, ""),
					domain.Excluded(domain.PSI_12, domain.EXCL_LATE_FIRST_OR),
					domain.Eligible(domain.PSI_13, false, "BASELINE"),
				},
			},
			{
				Index:       1,
				EncounterID: "ENC-2",
				Unevaluable: &engine.Unevaluable{
					Reason:   "validation failed",
					Problems: []domain.FieldProblem{{Field: "age", Message: "age must be between 0 and 124"}},
				},
			},
		},
		ConfigurationErrors: []*domain.UnknownCodeSetError{
			{Indicator: domain.PSI_06, Set: "IATROID", Version: "2024"},
		},
	}
}
