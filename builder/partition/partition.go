// Package partition splits a corpus index into train and eval subsets by a
// stable per-item predicate.
package partition

import (
	"github.com/Kush-Singh-26/imgcorpus/builder/corpus"
	"github.com/Kush-Singh-26/imgcorpus/builder/utils"
)

// EvalMask selects roughly one item in four for evaluation
const EvalMask uint64 = 0b11

// BelongsToEval reports whether item is in the eval partition. The answer
// depends only on the item string.
func BelongsToEval(item string) bool {
	return utils.StableHash(item)&EvalMask == 0
}

// Split returns the disjoint train and eval subsets of idx. Label sets are
// shared with idx, which must not be modified afterward.
func Split(idx corpus.Index) (train, eval corpus.Index) {
	train = make(corpus.Index, len(idx)*3/4+1)
	eval = make(corpus.Index, len(idx)/4+1)
	for item, labels := range idx {
		if BelongsToEval(item) {
			eval[item] = labels
		} else {
			train[item] = labels
		}
	}
	return train, eval
}

// Train returns the training subset of idx
func Train(idx corpus.Index) corpus.Index {
	train, _ := Split(idx)
	return train
}

// Eval returns the evaluation subset of idx
func Eval(idx corpus.Index) corpus.Index {
	_, eval := Split(idx)
	return eval
}
