package metrics

// Classification holds confusion-matrix metrics for activation decisions.
type Classification struct {
	TP        int     `json:"true_positives"`
	FP        int     `json:"false_positives"`
	TN        int     `json:"true_negatives"`
	FN        int     `json:"false_negatives"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Accuracy  float64 `json:"accuracy"`
}

// Decision pairs whether a skill should have activated with whether it did.
type Decision struct {
	ShouldActivate bool
	Activated      bool
}

// Classify computes precision, recall, F1 and accuracy. Empty input yields
// the zero Classification.
func Classify(decisions []Decision) Classification {
	var tp, fp, tn, fn int
	for _, d := range decisions {
		switch {
		case d.ShouldActivate && d.Activated:
			tp++
		case !d.ShouldActivate && d.Activated:
			fp++
		case !d.ShouldActivate && !d.Activated:
			tn++
		default:
			fn++
		}
	}

	precision := Ratio(tp, tp+fp)
	recall := Ratio(tp, tp+fn)

	var f1 float64
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	return Classification{
		TP:        tp,
		FP:        fp,
		TN:        tn,
		FN:        fn,
		Precision: Round4(precision),
		Recall:    Round4(recall),
		F1:        Round4(f1),
		Accuracy:  Round4(Ratio(tp+tn, len(decisions))),
	}
}
