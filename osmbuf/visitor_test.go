package osmbuf

import "testing"

type countingVisitor struct {
	BaseVisitor
	nodes, ways, relations int
}

func (c *countingVisitor) VisitNode(NodeView)         { c.nodes++ }
func (c *countingVisitor) VisitWay(WayView)           { c.ways++ }
func (c *countingVisitor) VisitRelation(RelationView) { c.relations++ }

func TestApplyDispatchesByTag(t *testing.T) {
	buf := NewBuffer(512)
	nb, _ := NewNodeBuilder(buf, 1, 1, 1, 0, 0, true)
	nb.Finish()
	buf.Commit()
	wb, _ := NewWayBuilder(buf, 2, 1, 1, 0, 0, true)
	wb.SetNodes([]int64{1})
	wb.Finish()
	buf.Commit()

	cv := &countingVisitor{}
	Apply(buf, cv)
	if cv.nodes != 1 || cv.ways != 1 || cv.relations != 0 {
		t.Fatalf("unexpected counts: %+v", cv)
	}
}

func TestMultiVisitorForwardsInOrder(t *testing.T) {
	buf := NewBuffer(256)
	nb, _ := NewNodeBuilder(buf, 1, 1, 1, 0, 0, true)
	nb.Finish()
	buf.Commit()

	var order []string
	a := &orderVisitor{name: "a", order: &order}
	b := &orderVisitor{name: "b", order: &order}
	Apply(buf, MultiVisitor{a, b})
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("expected [a b], got %v", order)
	}
}

type orderVisitor struct {
	BaseVisitor
	name  string
	order *[]string
}

func (o *orderVisitor) VisitNode(NodeView) { *o.order = append(*o.order, o.name) }
