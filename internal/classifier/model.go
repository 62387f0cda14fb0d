package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"sjsage522/profilewatch/logger"
	apperrors "sjsage522/profilewatch/pkg/errors"
)

// FeatureCount is the width of the feature row the scoring artifact was trained on
const FeatureCount = 4

// FeatureVector is the ordered classification input:
// followers, following, subscriptions, verified (0 or 1)
type FeatureVector [FeatureCount]float64

// Scorer maps a feature row to a probability in [0, 1]
type Scorer interface {
	Score(FeatureVector) float64
}

// Booster is an immutable gradient-boosted tree ensemble read from an XGBoost JSON model.
// Only numeric splits of a single-target gbtree with a logistic objective are supported.
type Booster struct {
	version    string
	objective  string
	baseMargin float32
	trees      []tree
}

type tree struct {
	left         []int
	right        []int
	featureIndex []int
	condition    []float32
	defaultLeft  []bool
}

// LoadModel reads a booster from an XGBoost JSON model file
func LoadModel(path string) (*Booster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewModel("read model file "+path, err)
	}

	booster, err := ParseModel(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	logger.ForClassifier().Info().
		Str("path", path).
		Str("version", booster.Version()).
		Str("objective", booster.Objective()).
		Int("trees", booster.NumTrees()).
		Msg("Model loaded")
	return booster, nil
}

// ParseModel decodes and validates an XGBoost JSON model
func ParseModel(r io.Reader) (*Booster, error) {
	var doc modelDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, apperrors.NewModel("decode model", err)
	}

	learner := doc.Learner
	if name := learner.GradientBooster.Name; name != "gbtree" {
		return nil, apperrors.NewModel(fmt.Sprintf("unsupported booster %q", name), nil)
	}

	objective := learner.Objective.Name
	if objective != "binary:logistic" && objective != "reg:logistic" {
		return nil, apperrors.NewModel(fmt.Sprintf("unsupported objective %q", objective), nil)
	}

	params := learner.LearnerModelParam
	if n, _ := strconv.Atoi(params.NumClass); n > 1 {
		return nil, apperrors.NewModel("multi-class models are not supported", nil)
	}
	if n, _ := strconv.Atoi(params.NumFeature); n > FeatureCount {
		return nil, apperrors.NewModel(fmt.Sprintf("model expects %d features, have %d", n, FeatureCount), nil)
	}

	baseScore, err := parseBaseScore(params.BaseScore)
	if err != nil {
		return nil, apperrors.NewModel("parse base_score", err)
	}
	if baseScore <= 0 || baseScore >= 1 {
		return nil, apperrors.NewModel(fmt.Sprintf("base_score %v outside (0, 1)", baseScore), nil)
	}

	booster := &Booster{
		version:    doc.versionString(),
		objective:  objective,
		baseMargin: float32(math.Log(baseScore / (1 - baseScore))),
	}

	for i, raw := range learner.GradientBooster.Model.Trees {
		t, err := raw.compile()
		if err != nil {
			return nil, apperrors.NewModel(fmt.Sprintf("tree %d", i), err)
		}
		booster.trees = append(booster.trees, t)
	}
	if len(booster.trees) == 0 {
		return nil, apperrors.NewModel("model has no trees", nil)
	}

	return booster, nil
}

// Score returns the predicted probability of the positive (genuine) class
func (b *Booster) Score(features FeatureVector) float64 {
	var fv [FeatureCount]float32
	for i, v := range features {
		fv[i] = float32(v)
	}

	margin := b.baseMargin
	for i := range b.trees {
		margin += b.trees[i].leafValue(fv)
	}
	return 1 / (1 + math.Exp(-float64(margin)))
}

// Version returns the XGBoost version that wrote the artifact
func (b *Booster) Version() string { return b.version }

// Objective returns the training objective
func (b *Booster) Objective() string { return b.objective }

// NumTrees returns the number of trees in the ensemble
func (b *Booster) NumTrees() int { return len(b.trees) }

func (t *tree) leafValue(fv [FeatureCount]float32) float32 {
	node := 0
	for t.left[node] != -1 {
		x := fv[t.featureIndex[node]]
		switch {
		case math.IsNaN(float64(x)):
			if t.defaultLeft[node] {
				node = t.left[node]
			} else {
				node = t.right[node]
			}
		case x < t.condition[node]:
			node = t.left[node]
		default:
			node = t.right[node]
		}
	}
	return t.condition[node]
}

type modelDocument struct {
	Learner struct {
		GradientBooster struct {
			Name  string `json:"name"`
			Model struct {
				Trees []rawTree `json:"trees"`
			} `json:"model"`
		} `json:"gradient_booster"`
		LearnerModelParam struct {
			BaseScore  string `json:"base_score"`
			NumClass   string `json:"num_class"`
			NumFeature string `json:"num_feature"`
		} `json:"learner_model_param"`
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
	} `json:"learner"`
	Version []int `json:"version"`
}

func (d modelDocument) versionString() string {
	parts := make([]string, len(d.Version))
	for i, v := range d.Version {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ".")
}

type rawTree struct {
	LeftChildren    []int      `json:"left_children"`
	RightChildren   []int      `json:"right_children"`
	SplitIndices    []int      `json:"split_indices"`
	SplitConditions []float64  `json:"split_conditions"`
	DefaultLeft     []flexBool `json:"default_left"`
	SplitType       []int      `json:"split_type"`
}

// compile checks the node arrays and converts them to the evaluation layout.
// Children must have larger ids than their parent so evaluation always terminates.
func (r rawTree) compile() (tree, error) {
	n := len(r.LeftChildren)
	if n == 0 {
		return tree{}, fmt.Errorf("empty tree")
	}
	if len(r.RightChildren) != n || len(r.SplitIndices) != n || len(r.SplitConditions) != n {
		return tree{}, fmt.Errorf("node arrays differ in length")
	}
	if len(r.DefaultLeft) != 0 && len(r.DefaultLeft) != n {
		return tree{}, fmt.Errorf("default_left has %d entries for %d nodes", len(r.DefaultLeft), n)
	}

	t := tree{
		left:         r.LeftChildren,
		right:        r.RightChildren,
		featureIndex: r.SplitIndices,
		condition:    make([]float32, n),
		defaultLeft:  make([]bool, n),
	}
	for i := 0; i < n; i++ {
		t.condition[i] = float32(r.SplitConditions[i])
		if len(r.DefaultLeft) == n {
			t.defaultLeft[i] = bool(r.DefaultLeft[i])
		}
		if i < len(r.SplitType) && r.SplitType[i] != 0 {
			return tree{}, fmt.Errorf("node %d: categorical splits are not supported", i)
		}

		left, right := r.LeftChildren[i], r.RightChildren[i]
		if left == -1 {
			if right != -1 {
				return tree{}, fmt.Errorf("node %d: leaf with a right child", i)
			}
			continue
		}
		if left <= i || left >= n || right <= i || right >= n {
			return tree{}, fmt.Errorf("node %d: child index out of range", i)
		}
		if f := r.SplitIndices[i]; f < 0 || f >= FeatureCount {
			return tree{}, fmt.Errorf("node %d: feature index %d out of range", i, f)
		}
	}
	return t, nil
}

// flexBool accepts both 0/1 and false/true encodings of default_left
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case "1", "true":
		*b = true
	case "0", "false":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}

// parseBaseScore handles both "5E-1" and the bracketed "[5E-1]" form
func parseBaseScore(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if s == "" {
		return 0.5, nil
	}
	return strconv.ParseFloat(s, 64)
}
