package workflow

import (
	"strings"
	"time"

	"github.com/opencrvs/dedup/internal/dedup"
	"github.com/opencrvs/dedup/internal/platform/fhir"
)

// joinTrackingIDs renders a candidate set as the comma-joined valueString
// stored in the duplicate-flag extension.
func joinTrackingIDs(candidates []dedup.Candidate) string {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.TrackingID)
	}
	return strings.Join(ids, ",")
}

// HasSameDuplicatesInExtension reports whether the Task already carries a
// duplicate-flag extension whose value equals the comma-joined tracking IDs
// of candidates.
//
// The comparison is an order-sensitive string equality: the same candidate
// set in a different relevance order reads as "different" and triggers a
// redundant write. Kept as-is for behavioral parity with the rest of the
// platform.
func HasSameDuplicatesInExtension(task *fhir.Task, candidates []dedup.Candidate) bool {
	ext, ok := task.FindExtension(fhir.FlaggedAsPotentialDuplicate)
	if !ok {
		return false
	}
	return ext.ValueString == joinTrackingIDs(candidates)
}

// UpdateTaskWithDuplicateIDs returns a copy of the Task with the
// duplicate-flag extension set to the candidates' tracking IDs. Any prior
// duplicate flag is replaced; every other extension is preserved; there is
// never more than one duplicate-flag extension. lastModified is refreshed.
// The caller owns persistence.
func UpdateTaskWithDuplicateIDs(task fhir.Task, candidates []dedup.Candidate) fhir.Task {
	extensions := make([]fhir.Extension, 0, len(task.Extension)+1)
	for _, ext := range task.Extension {
		if ext.URL != fhir.FlaggedAsPotentialDuplicate {
			extensions = append(extensions, ext)
		}
	}
	extensions = append(extensions, fhir.Extension{
		URL:         fhir.FlaggedAsPotentialDuplicate,
		ValueString: joinTrackingIDs(candidates),
	})

	task.Extension = extensions
	task.LastModified = time.Now().UTC().Format(time.RFC3339)
	return task
}

// UpdateCompositionWithDuplicateIDs returns a copy of the Composition with
// relatesTo set to one duplicate entry per candidate. The caller owns
// persistence.
func UpdateCompositionWithDuplicateIDs(composition fhir.Composition, candidates []dedup.Candidate) fhir.Composition {
	relatesTo := make([]fhir.RelatesTo, 0, len(candidates))
	for _, c := range candidates {
		relatesTo = append(relatesTo, fhir.RelatesTo{
			Code: fhir.RelatesToDuplicate,
			TargetReference: fhir.Reference{
				Reference: fhir.FormatReference(string(fhir.KindComposition), c.ID),
			},
		})
	}
	composition.RelatesTo = relatesTo
	return composition
}

// AppendDuplicateToTask returns a copy of the candidate-side Task with the
// new record's tracking ID appended to its duplicate flag, and true when the
// Task changed. Unlike the anchor-side replace, the symmetric back-flag
// appends so the candidate keeps duplicate links it already holds to other
// records.
func AppendDuplicateToTask(task fhir.Task, trackingID string) (fhir.Task, bool) {
	ext, ok := task.FindExtension(fhir.FlaggedAsPotentialDuplicate)
	if ok {
		for _, existing := range strings.Split(ext.ValueString, ",") {
			if existing == trackingID {
				return task, false
			}
		}
	}

	value := trackingID
	if ok && ext.ValueString != "" {
		value = ext.ValueString + "," + trackingID
	}

	extensions := make([]fhir.Extension, 0, len(task.Extension)+1)
	for _, e := range task.Extension {
		if e.URL != fhir.FlaggedAsPotentialDuplicate {
			extensions = append(extensions, e)
		}
	}
	extensions = append(extensions, fhir.Extension{
		URL:         fhir.FlaggedAsPotentialDuplicate,
		ValueString: value,
	})

	task.Extension = extensions
	task.LastModified = time.Now().UTC().Format(time.RFC3339)
	return task, true
}

// AppendDuplicateToComposition returns a copy of the candidate-side
// Composition with a duplicate relatesTo entry pointing back at the new
// record, and true when the Composition changed.
func AppendDuplicateToComposition(composition fhir.Composition, compositionID string) (fhir.Composition, bool) {
	if composition.RelatesToDuplicateOf(compositionID) {
		return composition, false
	}
	relatesTo := make([]fhir.RelatesTo, len(composition.RelatesTo), len(composition.RelatesTo)+1)
	copy(relatesTo, composition.RelatesTo)
	relatesTo = append(relatesTo, fhir.RelatesTo{
		Code: fhir.RelatesToDuplicate,
		TargetReference: fhir.Reference{
			Reference: fhir.FormatReference(string(fhir.KindComposition), compositionID),
		},
	})
	composition.RelatesTo = relatesTo
	return composition, true
}
