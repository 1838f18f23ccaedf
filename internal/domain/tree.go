package domain

import "sort"

// BuildCommentForest собирает лес комментариев из плоского среза.
// На каждом уровне порядок - по времени создания по возрастанию.
// Комментарии с отсутствующим в срезе родителем отбрасываются: каскадное
// мягкое удаление не оставляет живых потомков у удаленного родителя.
func BuildCommentForest(comments []*Comment) []*CommentNode {
	sorted := make([]*Comment, len(comments))
	copy(sorted, comments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	nodes := make(map[string]*CommentNode, len(sorted))
	for _, c := range sorted {
		nodes[c.ID] = &CommentNode{Comment: c, Replies: []*CommentNode{}}
	}

	roots := make([]*CommentNode, 0)
	for _, c := range sorted {
		node := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*c.ParentID]; ok {
			parent.Replies = append(parent.Replies, node)
		}
	}
	return roots
}
