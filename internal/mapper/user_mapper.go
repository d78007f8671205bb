package mapper

import (
	"prf-forms-be/internal/entity"
	"prf-forms-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToModel(e *entity.User) *model.User {
	return &model.User{
		Id:           e.Id,
		Email:        e.Email,
		PasswordHash: e.PasswordHash,
		FullName:     e.FullName,
		Role:         string(e.Role),
		Status:       string(e.Status),
		CreatedAt:    e.CreatedAt,
	}
}

func (m *UserMapper) ToEntity(mod *model.User) *entity.User {
	return &entity.User{
		Id:           mod.Id,
		Email:        mod.Email,
		PasswordHash: mod.PasswordHash,
		FullName:     mod.FullName,
		Role:         entity.UserRole(mod.Role),
		Status:       entity.UserStatus(mod.Status),
		CreatedAt:    mod.CreatedAt,
		UpdatedAt:    mod.UpdatedAt,
	}
}
