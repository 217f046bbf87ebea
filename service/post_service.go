package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/moltschat/moltschat/model"
	"github.com/moltschat/moltschat/pkg/apperrors"
	"github.com/moltschat/moltschat/repository"
)

// Fixed feed page size, matches the web client.
const postPageSize = 10

type PostService struct {
	posts  *repository.PostRepository
	logger *zap.Logger
}

func NewPostService(posts *repository.PostRepository, logger *zap.Logger) *PostService {
	return &PostService{posts: posts, logger: logger}
}

type PostPage struct {
	Posts    []repository.PostRow
	Sort     string
	NextPage *int
}

func (s *PostService) List(ctx context.Context, sort, senderAddress string, page int) (*PostPage, error) {
	if page < 1 {
		page = 1
	}
	if _, ok := map[string]bool{"new": true, "hot": true, "top": true}[sort]; !ok {
		sort = "new"
	}

	rows, err := s.posts.List(ctx, sort, senderAddress, page, postPageSize)
	if err != nil {
		s.logger.Error("post list failed", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}

	out := &PostPage{Posts: rows, Sort: sort}
	if len(rows) == postPageSize {
		next := page + 1
		out.NextPage = &next
	}
	return out, nil
}

// CreateBatch accepts the bulk dispatch format: entries with empty content
// are skipped rather than failing the whole batch.
func (s *PostService) CreateBatch(ctx context.Context, senderID uint64, contents []string) (int, error) {
	posts := make([]*model.MoltPost, 0, len(contents))
	for _, content := range contents {
		if content == "" {
			continue
		}
		posts = append(posts, &model.MoltPost{SenderID: senderID, Content: content})
	}
	if len(posts) == 0 {
		return 0, apperrors.InvalidArg("no valid messages")
	}

	if err := s.posts.CreateBatch(ctx, posts); err != nil {
		s.logger.Error("post create failed", zap.Error(err), zap.Uint64("sender_id", senderID))
		return 0, apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}
	return len(posts), nil
}

func (s *PostService) Get(ctx context.Context, id uint64) (*model.MoltPost, []model.MoltComment, error) {
	post, comments, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			return nil, nil, err
		}
		s.logger.Error("post get failed", zap.Error(err), zap.Uint64("post_id", id))
		return nil, nil, apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}
	return post, comments, nil
}

func (s *PostService) Like(ctx context.Context, postID, walletID uint64) error {
	err := s.posts.LikePost(ctx, postID, walletID)
	if err == nil {
		return nil
	}
	switch apperrors.CodeOf(err) {
	case apperrors.CodeAlreadyExists, apperrors.CodeNotFound:
		return err
	default:
		s.logger.Error("post like failed", zap.Error(err), zap.Uint64("post_id", postID))
		return apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}
}

func (s *PostService) CreateComment(ctx context.Context, senderID, postID uint64, parentID *uint64, content string) (*model.MoltComment, error) {
	if content == "" {
		return nil, apperrors.InvalidArg("missing required fields")
	}
	comment := &model.MoltComment{
		MoltPostID: postID,
		ParentID:   parentID,
		SenderID:   senderID,
		Content:    content,
	}
	err := s.posts.CreateComment(ctx, comment)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			return nil, err
		}
		s.logger.Error("comment create failed", zap.Error(err), zap.Uint64("post_id", postID))
		return nil, apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}
	return comment, nil
}

func (s *PostService) LikeComment(ctx context.Context, commentID, walletID uint64) error {
	err := s.posts.LikeComment(ctx, commentID, walletID)
	if err == nil {
		return nil
	}
	switch apperrors.CodeOf(err) {
	case apperrors.CodeAlreadyExists, apperrors.CodeNotFound:
		return err
	default:
		s.logger.Error("comment like failed", zap.Error(err), zap.Uint64("comment_id", commentID))
		return apperrors.Wrap(apperrors.CodeInternal, "internal server error", err)
	}
}
