package db

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"file-manager/internal/audit"
	"file-manager/internal/config"
	"file-manager/internal/node"
	"file-manager/internal/revision"
	"file-manager/internal/user"

	"github.com/gabriel-vasile/mimetype"
)

// Migrate runs database migrations
func Migrate() {
	err := AppDb.AutoMigrate(
		&user.User{},
		&node.Node{},
		&revision.TextRevision{},
		&audit.Entry{},
	)

	if err != nil {
		log.Fatal(err)
	}

	log.Println("Database schema migrated successfully")
}

// SeedData seeds the database with the two well-known accounts, a small
// folder skeleton and any files found under <StaticRoot>/seed (development
// convenience, every step is idempotent).
func SeedData(recorder *audit.Recorder) {
	ctx := context.Background()

	userRepo := user.NewRepository(AppDb)
	userService := user.NewService(userRepo)

	admin := seedUser(ctx, userService, userRepo, "admin@example.com", "admin123", user.RoleAdmin)
	seedUser(ctx, userService, userRepo, "user@example.com", "user123", user.RoleUser)
	if admin == nil {
		return
	}

	nodeRepo := node.NewRepository(AppDb)
	folders := map[string]*node.Node{
		node.TypeDocument: seedFolder(ctx, nodeRepo, admin.ID, "Documents", recorder),
		node.TypeImage:    seedFolder(ctx, nodeRepo, admin.ID, "Images", recorder),
		node.TypeOther:    seedFolder(ctx, nodeRepo, admin.ID, "Media", recorder),
	}

	seedDir := filepath.Join(config.AppConfig.StaticRoot, "seed")
	entries, err := os.ReadDir(seedDir)
	if err != nil {
		return // no seed directory, nothing else to do
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		seedFile(ctx, nodeRepo, admin.ID, seedDir, entry.Name(), folders, recorder)
	}
}

func seedUser(ctx context.Context, service user.Service, repo user.UserRepository, email, password, role string) *user.User {
	existing, err := repo.FindByEmail(ctx, email)
	if err == nil {
		return existing
	}

	u := &user.User{
		Email:    email,
		Password: password,
		Role:     role,
	}
	if err := service.Register(ctx, u); err != nil {
		log.Printf("Error creating seed user %s: %v", email, err)
		return nil
	}
	log.Printf("Created seed user: %s", email)
	return u
}

func seedFolder(ctx context.Context, repo node.NodeRepository, ownerID, name string, recorder *audit.Recorder) *node.Node {
	var existing node.Node
	err := AppDb.Where("owner_id = ? AND kind = ? AND parent_id IS NULL AND LOWER(name) = LOWER(?)",
		ownerID, node.KindFolder, name).First(&existing).Error
	if err == nil {
		return &existing
	}

	folder := &node.Node{Name: name, OwnerID: ownerID}
	if err := repo.CreateFolder(ctx, folder); err != nil {
		log.Printf("Error creating seed folder %s: %v", name, err)
		return nil
	}

	recorder.Record(audit.Event{
		Type:       "folder.create",
		TargetID:   folder.ID,
		TargetType: "folder",
		TargetName: folder.Name,
		Details:    map[string]any{"seed": true},
	})
	return folder
}

func seedFile(
	ctx context.Context,
	repo node.NodeRepository,
	ownerID, seedDir, name string,
	folders map[string]*node.Node,
	recorder *audit.Recorder,
) {
	var count int64
	AppDb.Model(&node.Node{}).Where("owner_id = ? AND kind = ? AND name = ?", ownerID, node.KindFile, name).Count(&count)
	if count > 0 {
		return
	}

	path := filepath.Join(seedDir, name)
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	mimeType := "application/octet-stream"
	if detected, err := mimetype.DetectFile(path); err == nil {
		mimeType = detected.String()
	}

	derived := node.DeriveType(mimeType)
	parent := folders[derived]
	if parent == nil {
		parent = folders[node.TypeOther]
	}

	locator := "/static/seed/" + name
	size := info.Size()
	file := &node.Node{
		Name:     name,
		OwnerID:  ownerID,
		MimeType: &mimeType,
		Type:     &derived,
		URL:      &locator,
		Size:     &size,
	}
	if parent != nil {
		file.ParentID = &parent.ID
	}

	if err := repo.CreateFile(ctx, file); err != nil {
		log.Printf("Error creating seed file %s: %v", name, err)
		return
	}

	recorder.Record(audit.Event{
		Type:       "file.upload",
		TargetID:   file.ID,
		TargetType: "file",
		TargetName: file.Name,
		Details:    map[string]any{"seed": true, "mimeType": mimeType},
	})
}
