// FILE: internal/mapper/user_mapper.go
package mapper

import (
	"ai-adgen-be/internal/entity"
	"ai-adgen-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}
	return &entity.User{
		Id:                 u.Id,
		Email:              u.Email,
		FullName:           u.FullName,
		Credits:            u.Credits,
		ProviderCustomerId: u.ProviderCustomerId,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}
	return &model.User{
		Id:                 u.Id,
		Email:              u.Email,
		FullName:           u.FullName,
		Credits:            u.Credits,
		ProviderCustomerId: u.ProviderCustomerId,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}
