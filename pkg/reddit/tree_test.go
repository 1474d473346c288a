package reddit

import "testing"

func flatComments(scores ...int) []*Comment {
	comments := make([]*Comment, 0, len(scores))
	for i, score := range scores {
		comments = append(comments, &Comment{
			ID:     string(rune('a' + i)),
			Author: "user",
			Body:   "comment",
			Score:  score,
		})
	}
	return comments
}

func TestBuildTreeDropsDeletedAuthors(t *testing.T) {
	submission := &Submission{ID: "post1", Title: "hello", Subreddit: "golang", Author: "op"}
	comments := []*Comment{
		{ID: "a", Author: "alice", Body: "kept", Score: 1},
		{ID: "b", Author: "", Body: "deleted", Score: 100},
	}

	tree := BuildTree(submission, comments, 0)
	if tree.ContentID != "t3_post1" {
		t.Fatalf("root content id = %q", tree.ContentID)
	}
	if len(tree.Replies) != 1 || tree.Replies[0].ContentID != "t1_a" {
		t.Fatalf("unexpected replies: %+v", tree.Replies)
	}
}

func TestBuildTreeUnderCapIsNotCropped(t *testing.T) {
	submission := &Submission{ID: "post1"}
	tree := BuildTree(submission, flatComments(1, 2, 3), 10)
	if len(tree.Replies) != 3 {
		t.Fatalf("expected all 3 comments, got %d", len(tree.Replies))
	}
}

func TestBuildTreeCropsToCap(t *testing.T) {
	submission := &Submission{ID: "post1"}
	// Ten comments with distinct scores; cap at 4 keeps the top scorers.
	tree := BuildTree(submission, flatComments(1, 2, 3, 4, 5, 6, 7, 8, 9, 10), 4)
	if len(tree.Replies) > 4 {
		t.Fatalf("tree not cropped: %d replies", len(tree.Replies))
	}
	for _, node := range tree.Replies {
		if node.Score < 7 {
			t.Fatalf("low-score comment survived crop: %+v", node)
		}
	}
}

func TestCropRemovesSubtrees(t *testing.T) {
	nodes := []*CommentNode{
		{ContentID: "t1_a", Score: 10, Replies: []*CommentNode{
			{ContentID: "t1_b", Score: 1},
		}},
		{ContentID: "t1_c", Score: 2},
	}
	threshold := 5
	out := cropTree(nodes, &threshold)
	if len(out) != 1 || out[0].ContentID != "t1_a" {
		t.Fatalf("unexpected crop result: %+v", out)
	}
	if len(out[0].Replies) != 0 {
		t.Fatal("low-score child should be cropped with its subtree")
	}
}

func TestTreeSizeCountsNested(t *testing.T) {
	nodes := []*CommentNode{
		{Score: 5, Replies: []*CommentNode{{Score: 5}, {Score: 5}}},
		{Score: 5},
	}
	if got := treeSize(nil, nodes); got != 4 {
		t.Fatalf("treeSize = %d, want 4", got)
	}
	threshold := 6
	if got := treeSize(&threshold, nodes); got != 0 {
		t.Fatalf("treeSize above threshold = %d, want 0", got)
	}
}

func TestFindMinScoreThresholdBracketsOutOfRangeScores(t *testing.T) {
	// Scores far above the initial high bound still terminate.
	nodes := []*CommentNode{{Score: 900}, {Score: 950}, {Score: 1000}}
	threshold := findMinScoreThreshold(nodes, 2, 1, 500)
	size := treeSize(&threshold, nodes)
	if size > 3 || size < 1 {
		t.Fatalf("threshold %d yields size %d", threshold, size)
	}
}

func TestFindContent(t *testing.T) {
	tree := &SubmissionNode{
		ContentID: "t3_post1",
		Replies: []*CommentNode{
			{ContentID: "t1_a", Replies: []*CommentNode{{ContentID: "t1_b"}}},
		},
	}
	for _, id := range []string{"t3_post1", "t1_a", "t1_b"} {
		if !tree.FindContent(id) {
			t.Fatalf("FindContent(%q) = false", id)
		}
	}
	if tree.FindContent("t1_zzz") {
		t.Fatal("FindContent matched a missing id")
	}
}
