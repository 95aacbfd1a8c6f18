package estimator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/cropyield/internal/models"
)

// ErrInvalidModel — файл модели не удалось разобрать в корректный ансамбль.
var ErrInvalidModel = errors.New("invalid tree ensemble")

// DefaultBaseScore — base_score регрессии XGBoost по умолчанию.
const DefaultBaseScore = 0.5

// dumpNode — узел дерева в формате booster.dump_model(dump_format="json").
type dumpNode struct {
	NodeID         int         `json:"nodeid"`
	Split          string      `json:"split"`
	SplitCondition float64     `json:"split_condition"`
	Yes            int         `json:"yes"`
	No             int         `json:"no"`
	Missing        int         `json:"missing"`
	Leaf           *float64    `json:"leaf"`
	Children       []*dumpNode `json:"children"`
}

// node — узел скомпилированного дерева. yes/no/missing — индексы в tree.
type node struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	yes       int
	no        int
	missing   int
}

type tree []node

// TreeEnsemble — сумма деревьев градиентного бустинга плюс base_score.
// После загрузки не изменяется и безопасна для параллельного использования.
type TreeEnsemble struct {
	baseScore float64
	trees     []tree
}

// LoadTreeEnsemble читает JSON-дамп модели из файла.
func LoadTreeEnsemble(path string, baseScore float64) (*TreeEnsemble, error) {
	const op = "estimator.LoadTreeEnsemble"
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = f.Close()
	}()

	ens, err := ParseTreeEnsemble(f, baseScore)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ens, nil
}

// ParseTreeEnsemble разбирает JSON-массив деревьев.
func ParseTreeEnsemble(r io.Reader, baseScore float64) (*TreeEnsemble, error) {
	var dump []*dumpNode
	if err := json.NewDecoder(r).Decode(&dump); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	if len(dump) == 0 {
		return nil, fmt.Errorf("%w: no trees", ErrInvalidModel)
	}

	ens := &TreeEnsemble{baseScore: baseScore, trees: make([]tree, 0, len(dump))}
	for i, root := range dump {
		t, err := compileTree(root)
		if err != nil {
			return nil, fmt.Errorf("%w: tree %d: %w", ErrInvalidModel, i, err)
		}
		ens.trees = append(ens.trees, t)
	}
	return ens, nil
}

// Trees возвращает количество деревьев в ансамбле.
func (e *TreeEnsemble) Trees() int {
	return len(e.trees)
}

// Estimate суммирует листья всех деревьев для данного вектора признаков.
func (e *TreeEnsemble) Estimate(ctx context.Context, features models.FeatureVector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	x := features.Slice()
	sum := e.baseScore
	for _, t := range e.trees {
		sum += t.eval(x)
	}
	return sum, nil
}

func (t tree) eval(x [models.FeatureCount]float64) float64 {
	i := 0
	for {
		n := t[i]
		if n.leaf {
			return n.value
		}
		v := x[n.feature]
		switch {
		case math.IsNaN(v):
			i = n.missing
		case v < n.threshold:
			i = n.yes
		default:
			i = n.no
		}
	}
}

// compileTree раскладывает вложенный дамп в плоский массив узлов.
func compileTree(root *dumpNode) (tree, error) {
	if root == nil {
		return nil, errors.New("empty tree")
	}

	byID := make(map[int]*dumpNode)
	stack := []*dumpNode{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			return nil, errors.New("null node")
		}
		if _, dup := byID[n.NodeID]; dup {
			return nil, fmt.Errorf("duplicate node id %d", n.NodeID)
		}
		byID[n.NodeID] = n
		stack = append(stack, n.Children...)
	}

	// корень получает индекс 0, остальные — по порядку обхода
	index := map[int]int{root.NodeID: 0}
	order := []*dumpNode{root}
	for i := 0; i < len(order); i++ {
		n := order[i]
		if n.Leaf != nil {
			continue
		}
		for _, id := range []int{n.Yes, n.No, n.Missing} {
			if _, seen := index[id]; seen {
				continue
			}
			child, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("node %d references unknown node %d", n.NodeID, id)
			}
			index[id] = len(order)
			order = append(order, child)
		}
	}

	t := make(tree, len(order))
	for i, n := range order {
		if n.Leaf != nil {
			t[i] = node{leaf: true, value: *n.Leaf}
			continue
		}
		feature, err := featureIndex(n.Split)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", n.NodeID, err)
		}
		t[i] = node{
			feature:   feature,
			threshold: n.SplitCondition,
			yes:       index[n.Yes],
			no:        index[n.No],
			missing:   index[n.Missing],
		}
	}

	if err := t.checkAcyclic(); err != nil {
		return nil, err
	}
	return t, nil
}

// checkAcyclic гарантирует, что eval всегда дойдёт до листа.
func (t tree) checkAcyclic() error {
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make([]int, len(t))
	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case inProgress:
			return errors.New("cycle detected")
		case done:
			return nil
		}
		state[i] = inProgress
		if n := t[i]; !n.leaf {
			for _, c := range []int{n.yes, n.no, n.missing} {
				if err := visit(c); err != nil {
					return err
				}
			}
		}
		state[i] = done
		return nil
	}
	return visit(0)
}

// featureIndex понимает и имена вида f0..f6, и имена признаков модели.
func featureIndex(split string) (int, error) {
	if rest, ok := strings.CutPrefix(split, "f"); ok {
		if i, err := strconv.Atoi(rest); err == nil {
			if i < 0 || i >= models.FeatureCount {
				return 0, fmt.Errorf("feature %q out of range", split)
			}
			return i, nil
		}
	}
	for i, name := range models.FeatureNames {
		if name == split {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown feature %q", split)
}
