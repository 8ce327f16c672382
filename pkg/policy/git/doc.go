// Package git keeps vocabulary files in sync with a git repository.
//
// A Repository clones the configured branch into a local directory and
// fast-forwards it to the remote branch head on demand. A Syncer polls the
// remote, reloads the table registry when vocabulary files change and
// resets the clone to the last good commit when the new files fail to
// load, so a restart never picks up a vocabulary the service rejected.
//
// Basic usage:
//
//	repo, err := git.NewRepository(cfg.Vocabulary.Git, cfg.Vocabulary.Path)
//	if err != nil {
//	    return err
//	}
//	if err := repo.Clone(ctx); err != nil {
//	    return err
//	}
//	m, _ := manager.New(manager.Config{Path: repo.VocabularyPath()}, logger)
//	syncer := git.NewSyncer(repo, m.Reload, git.SyncerConfig{Interval: time.Minute}, logger)
//	go syncer.Run(ctx)
package git
