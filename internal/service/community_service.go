package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"Uni_Community/internal/model"
	"Uni_Community/internal/permission"
	redisrepo "Uni_Community/internal/repository/redis"
)

// RecommendLimit 一次推荐的社区数量上限
const RecommendLimit = 10

type CommunityStore interface {
	Create(ctx context.Context, c *model.Community) (*model.Community, error)
	FindByID(ctx context.Context, id uint64) (*model.Community, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]model.CommunityInfo, error)
	Recommend(ctx context.Context, userID uint64, limit int) ([]uint64, error)
	Update(ctx context.Context, c *model.Community) error
	UpdateIcon(ctx context.Context, id uint64, icon string) error
	DeleteByID(ctx context.Context, id, ownerID uint64) (int64, error)
}

type MemberStore interface {
	Join(ctx context.Context, member *model.CommunityMember) error
	Leave(ctx context.Context, communityID, userID uint64) error
	CommunityIDs(ctx context.Context, userID uint64) ([]uint64, error)
}

// CommunityInput 创建/编辑社区的入参
type CommunityInput struct {
	Name           string
	Description    string
	University     string
	IsDiscoverable bool
	Tags           []string
}

// CommunityService 成员关系与社区元数据的缓存旁路读路径，
// 以及写路径之后的缓存调整
type CommunityService struct {
	repo    CommunityStore
	members MemberStore
	cache   *redisrepo.CommunityCache
	perms   *PermissionService
}

func NewCommunityService(repo CommunityStore, members MemberStore, cache *redisrepo.CommunityCache, perms *PermissionService) *CommunityService {
	return &CommunityService{
		repo:    repo,
		members: members,
		cache:   cache,
		perms:   perms,
	}
}

func validateCommunity(in CommunityInput) error {
	n := utf8.RuneCountInString(in.Name)
	if n < 3 || n > 15 {
		return fmt.Errorf("%w: community name must be 3-15 characters", ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.Description) > 60 {
		return fmt.Errorf("%w: description must be at most 60 characters", ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.University) > 20 {
		return fmt.Errorf("%w: university must be at most 20 characters", ErrInvalidInput)
	}
	if len(in.Tags) > 5 {
		return fmt.Errorf("%w: at most 5 tags", ErrInvalidInput)
	}
	return nil
}

// GetUserCommunities 用户已加入的社区视图。
// id 列表缓存不过期，靠成员变更路径显式调整
func (s *CommunityService) GetUserCommunities(ctx context.Context, userID uint64) ([]model.UserCommunity, error) {
	ids, ok := s.cache.GetUserCommunityIDs(ctx, userID)
	if !ok {
		var err error
		ids, err = s.members.CommunityIDs(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("list member communities: %w", err)
		}
		s.cache.SetUserCommunityIDs(ctx, userID, ids)
	}

	infos, err := s.GetCommunities(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]model.UserCommunity, 0, len(infos))
	for _, info := range infos {
		out = append(out, model.UserCommunity{
			CommunityInfo: info,
			IsOwner:       info.CreatorID == userID,
			IsMember:      true,
		})
	}
	return out, nil
}

// GetUserCommunity 单个社区的成员视图；不在列表里返回 (nil, nil)
func (s *CommunityService) GetUserCommunity(ctx context.Context, userID, communityID uint64) (*model.UserCommunity, error) {
	list, err := s.GetUserCommunities(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == communityID {
			return &list[i], nil
		}
	}
	return nil, nil
}

// GetUserRecommendedCommunities 推荐视图：推荐不代表已加入，IsMember 恒为 false
func (s *CommunityService) GetUserRecommendedCommunities(ctx context.Context, userID uint64) ([]model.UserCommunity, error) {
	ids, ok := s.cache.GetRecommendedIDs(ctx, userID)
	if !ok {
		var err error
		ids, err = s.repo.Recommend(ctx, userID, RecommendLimit)
		if err != nil {
			return nil, fmt.Errorf("recommend communities: %w", err)
		}
		s.cache.SetRecommendedIDs(ctx, userID, ids)
	}

	infos, err := s.GetCommunities(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]model.UserCommunity, 0, len(infos))
	for _, info := range infos {
		out = append(out, model.UserCommunity{
			CommunityInfo: info,
			IsOwner:       info.CreatorID == userID,
			IsMember:      false,
		})
	}
	return out, nil
}

// GetCommunities 批量取社区元数据：先管道批量读缓存，
// 未命中的 id 用一条 IN 查询回源（成员数在查询时算出），批量写回后合并。
// 返回顺序不保证与入参一致，调用方按 id 过滤/连接
func (s *CommunityService) GetCommunities(ctx context.Context, ids []uint64) ([]model.CommunityInfo, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cached := s.cache.GetCommunities(ctx, ids)

	missing := make([]uint64, 0)
	for _, id := range ids {
		if cached[id] == nil {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		fetched, err := s.repo.FindByIDs(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("fetch communities: %w", err)
		}

		byID := make(map[uint64]model.CommunityInfo, len(fetched))
		for _, info := range fetched {
			byID[info.ID] = info
		}
		s.cache.SetCommunities(ctx, byID)

		for id, info := range byID {
			v := info
			cached[id] = &v
		}
	}

	out := make([]model.CommunityInfo, 0, len(ids))
	seen := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		if info := cached[id]; info != nil && !seen[id] {
			out = append(out, *info)
			seen[id] = true
		}
	}
	return out, nil
}

// CreateCommunity 建社区（创建者自动入驻），随后作废其列表缓存
func (s *CommunityService) CreateCommunity(ctx context.Context, creatorID uint64, in CommunityInput) (*model.Community, error) {
	if err := validateCommunity(in); err != nil {
		return nil, err
	}

	community := &model.Community{
		Name:           in.Name,
		Description:    in.Description,
		University:     in.University,
		IsDiscoverable: in.IsDiscoverable,
		Tags:           in.Tags,
		CreatorID:      creatorID,
	}
	if _, err := s.repo.Create(ctx, community); err != nil {
		return nil, fmt.Errorf("create community: %w", err)
	}

	s.cache.DeleteUserCommunityIDs(ctx, creatorID)
	return community, nil
}

// EditCommunity 编辑元数据：就地修补缓存条目并作废操作者的列表缓存
func (s *CommunityService) EditCommunity(ctx context.Context, actorID, communityID uint64, in CommunityInput) error {
	if err := validateCommunity(in); err != nil {
		return err
	}
	if !s.perms.CheckPermission(ctx, actorID, communityID, permission.EditCommunity) {
		return ErrPermissionDenied
	}

	if err := s.repo.Update(ctx, &model.Community{
		ID:             communityID,
		Name:           in.Name,
		Description:    in.Description,
		University:     in.University,
		IsDiscoverable: in.IsDiscoverable,
		Tags:           in.Tags,
	}); err != nil {
		return fmt.Errorf("update community: %w", err)
	}

	s.cache.PatchCommunity(ctx, communityID, func(info *model.CommunityInfo) {
		info.Name = in.Name
		info.Description = in.Description
		info.University = in.University
		info.IsDiscoverable = in.IsDiscoverable
		info.Tags = in.Tags
	})
	s.cache.DeleteUserCommunityIDs(ctx, actorID)
	return nil
}

// UpdateCommunityIcon 持久化图标地址并就地修补缓存
func (s *CommunityService) UpdateCommunityIcon(ctx context.Context, actorID, communityID uint64, iconURL string) error {
	if !s.perms.CheckPermission(ctx, actorID, communityID, permission.EditCommunity) {
		return ErrPermissionDenied
	}

	if err := s.repo.UpdateIcon(ctx, communityID, iconURL); err != nil {
		return fmt.Errorf("update community icon: %w", err)
	}

	s.cache.PatchCommunity(ctx, communityID, func(info *model.CommunityInfo) {
		info.Icon = iconURL
	})
	return nil
}

// DeleteCommunity 仅所有者可删。社区没了，相关权限条目一并失效，
// 其他成员列表缓存里的残留 id 在读取时会因回源查不到而被过滤掉
func (s *CommunityService) DeleteCommunity(ctx context.Context, actorID, communityID uint64) error {
	community, err := s.repo.FindByID(ctx, communityID)
	if err != nil {
		return fmt.Errorf("find community: %w", err)
	}
	if community == nil {
		return ErrNotFound
	}
	if community.CreatorID != actorID {
		return ErrPermissionDenied
	}

	if _, err := s.repo.DeleteByID(ctx, communityID, actorID); err != nil {
		return fmt.Errorf("delete community: %w", err)
	}

	s.cache.DeleteCommunity(ctx, communityID)
	s.perms.InvalidateCommunityPermissions(ctx, communityID)
	s.cache.DeleteUserCommunityIDs(ctx, actorID)
	return nil
}

// JoinCommunity 只有可发现社区能直接加入；不可发现的对外表现为不存在
func (s *CommunityService) JoinCommunity(ctx context.Context, userID, communityID uint64) error {
	infos, err := s.GetCommunities(ctx, []uint64{communityID})
	if err != nil {
		return err
	}
	if len(infos) == 0 || !infos[0].IsDiscoverable {
		return ErrNotFound
	}

	if err := s.members.Join(ctx, &model.CommunityMember{
		CommunityID: communityID,
		UserID:      userID,
	}); err != nil {
		return fmt.Errorf("join community: %w", err)
	}

	s.applyMembershipCacheDelta(ctx, userID, communityID, true)
	return nil
}

func (s *CommunityService) LeaveCommunity(ctx context.Context, userID, communityID uint64) error {
	if err := s.members.Leave(ctx, communityID, userID); err != nil {
		return fmt.Errorf("leave community: %w", err)
	}

	s.applyMembershipCacheDelta(ctx, userID, communityID, false)
	return nil
}

// 成员变更后的缓存调整：id 列表仅在已缓存时就地读改写（接受竞态），
// 推荐缓存整体删除（可发现性变了），社区条目删除 —— 成员数不在缓存里
// 原地加减，下次读取时从关系表重算，避免并发加减丢更新
func (s *CommunityService) applyMembershipCacheDelta(ctx context.Context, userID, communityID uint64, joined bool) {
	if joined {
		s.cache.AppendUserCommunityID(ctx, userID, communityID)
	} else {
		s.cache.RemoveUserCommunityID(ctx, userID, communityID)
	}
	s.cache.DeleteRecommended(ctx, userID)
	s.cache.DeleteCommunity(ctx, communityID)
}
