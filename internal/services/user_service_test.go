package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/taskflow-api/internal/auth"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"github.com/yukikurage/taskflow-api/internal/testutil"
	"github.com/yukikurage/taskflow-api/internal/utils"
	"gorm.io/gorm"
)

type UserServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	tokens  *auth.Manager
	service *UserService
	ctx     context.Context
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.db = testutil.NewDB(suite.T())
	suite.tokens = newTestTokens(suite.T())
	suite.service = NewUserService(repository.NewUserRepository(suite.db), suite.tokens)
	suite.ctx = context.Background()
}

func (suite *UserServiceTestSuite) createUser(email, password string, role models.UserRole) *models.User {
	hash, err := suite.tokens.HashPassword(password)
	suite.Require().NoError(err)
	user := &models.User{Email: email, Name: "User", PasswordHash: hash, Role: role}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *UserServiceTestSuite) TestChangeName() {
	user := suite.createUser("a@x.com", "longenough1", models.RoleCommon)

	updated, err := suite.service.ChangeName(suite.ctx, user.ID, "  Alice Liddell ")
	suite.Require().NoError(err)
	suite.Equal("Alice Liddell", updated.Name)

	_, err = suite.service.ChangeName(suite.ctx, user.ID, " ")
	suite.ErrorIs(err, ErrNameRequired)

	_, err = suite.service.ChangeName(suite.ctx, user.ID+100, "Ghost")
	suite.ErrorIs(err, ErrUserNotFound)
}

func (suite *UserServiceTestSuite) TestChangePassword() {
	user := suite.createUser("a@x.com", "longenough1", models.RoleCommon)

	err := suite.service.ChangePassword(suite.ctx, user.ID, "wrong-password", "brandnewpass")
	suite.ErrorIs(err, ErrWrongPassword)

	err = suite.service.ChangePassword(suite.ctx, user.ID, "longenough1", "short")
	suite.ErrorIs(err, auth.ErrWeakPassword)

	suite.Require().NoError(suite.service.ChangePassword(suite.ctx, user.ID, "longenough1", "brandnewpass"))

	var stored models.User
	suite.Require().NoError(suite.db.First(&stored, user.ID).Error)
	ok, err := suite.tokens.VerifyPassword("brandnewpass", stored.PasswordHash)
	suite.Require().NoError(err)
	suite.True(ok)
}

func (suite *UserServiceTestSuite) TestDeleteSelf_RemovesTasks() {
	user := suite.createUser("a@x.com", "longenough1", models.RoleCommon)
	suite.Require().NoError(suite.db.Create(&models.Task{UserID: user.ID, Title: "t"}).Error)

	deleted, err := suite.service.DeleteSelf(suite.ctx, user.ID)
	suite.Require().NoError(err)
	suite.Equal(user.ID, deleted.ID)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Task{}).Where("user_id = ?", user.ID).Count(&count).Error)
	suite.Zero(count)

	_, err = suite.service.DeleteSelf(suite.ctx, user.ID)
	suite.ErrorIs(err, ErrUserNotFound)
}

func (suite *UserServiceTestSuite) TestRequireAdmin() {
	admin := suite.createUser("admin@x.com", "longenough1", models.RoleAdmin)
	common := suite.createUser("a@x.com", "longenough1", models.RoleCommon)

	_, err := suite.service.RequireAdmin(suite.ctx, admin.ID)
	suite.NoError(err)

	_, err = suite.service.RequireAdmin(suite.ctx, common.ID)
	suite.ErrorIs(err, ErrAdminRequired)

	_, err = suite.service.RequireAdmin(suite.ctx, common.ID+100)
	suite.ErrorIs(err, ErrAdminRequired)
}

func (suite *UserServiceTestSuite) TestListUsers() {
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		suite.createUser(email, "longenough1", models.RoleCommon)
	}

	users, total, err := suite.service.ListUsers(suite.ctx, utils.NewPaginationParams(1, 2))
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)
	suite.Len(users, 2)
}

func (suite *UserServiceTestSuite) TestDeleteUser() {
	admin := suite.createUser("admin@x.com", "longenough1", models.RoleAdmin)
	target := suite.createUser("a@x.com", "longenough1", models.RoleCommon)

	_, err := suite.service.DeleteUser(suite.ctx, admin.ID, admin.ID)
	suite.ErrorIs(err, ErrCannotDeleteSelf)

	deleted, err := suite.service.DeleteUser(suite.ctx, admin.ID, target.ID)
	suite.Require().NoError(err)
	suite.Equal("a@x.com", deleted.Email)

	_, err = suite.service.DeleteUser(suite.ctx, admin.ID, target.ID)
	suite.ErrorIs(err, ErrUserNotFound)
}

func (suite *UserServiceTestSuite) TestSeedAdmin() {
	admin, err := suite.service.SeedAdmin(suite.ctx, "Admin@X.com", "longenough1", "Admin")
	suite.Require().NoError(err)
	suite.Equal("admin@x.com", admin.Email)
	suite.True(admin.IsAdmin())

	again, err := suite.service.SeedAdmin(suite.ctx, "admin@x.com", "otherpassword", "Admin")
	suite.Require().NoError(err)
	suite.Equal(admin.ID, again.ID)

	common := suite.createUser("a@x.com", "longenough1", models.RoleCommon)
	promoted, err := suite.service.SeedAdmin(suite.ctx, "a@x.com", "longenough1", "Admin")
	suite.Require().NoError(err)
	suite.Equal(common.ID, promoted.ID)

	var stored models.User
	suite.Require().NoError(suite.db.First(&stored, common.ID).Error)
	suite.Equal(models.RoleAdmin, stored.Role)
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
