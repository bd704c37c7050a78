package implementation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wise-student-be/internal/entity"
	"wise-student-be/internal/mapper"
	"wise-student-be/internal/model"
	"wise-student-be/internal/repository/contract"
	"wise-student-be/internal/repository/specification"
)

type UserRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewUserRepository(db *gorm.DB) contract.UserRepository {
	return &UserRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *UserRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entity.User) error {
	m := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(m, nil, nil)
	return nil
}

func (r *UserRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	var m model.User
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.hydrate(ctx, &m)
}

func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var m model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.hydrate(ctx, &m)
}

func (r *UserRepositoryImpl) hydrate(ctx context.Context, m *model.User) (*entity.User, error) {
	parents, err := r.ParentsOf(ctx, m.Id)
	if err != nil {
		return nil, err
	}
	children, err := r.ChildrenOf(ctx, m.Id)
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntity(m, parents, children), nil
}

func (r *UserRepositoryImpl) Link(ctx context.Context, parentID, childID uuid.UUID) error {
	link := &model.UserLink{
		Id:       uuid.New(),
		ParentId: parentID,
		ChildId:  childID,
	}
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *UserRepositoryImpl) IsLinked(ctx context.Context, parentID, childID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserLink{}).
		Where("parent_id = ? AND child_id = ?", parentID, childID).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepositoryImpl) ChildrenOf(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	var links []*model.UserLink
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(links))
	for i, l := range links {
		ids[i] = l.ChildId
	}
	return ids, nil
}

func (r *UserRepositoryImpl) ParentsOf(ctx context.Context, childID uuid.UUID) ([]uuid.UUID, error) {
	var links []*model.UserLink
	err := r.db.WithContext(ctx).
		Where("child_id = ?", childID).
		Order("created_at ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(links))
	for i, l := range links {
		ids[i] = l.ParentId
	}
	return ids, nil
}
