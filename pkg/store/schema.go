package store

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(64) NOT NULL UNIQUE,
		password_hash VARCHAR(100) NOT NULL,
		nickname VARCHAR(64) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS friends (
		user_id BIGINT NOT NULL,
		friend_user_id BIGINT NOT NULL,
		remark VARCHAR(64) NOT NULL DEFAULT '',
		group_name VARCHAR(64) NOT NULL DEFAULT '',
		is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (user_id, friend_user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS friend_applies (
		apply_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		from_user_id BIGINT NOT NULL,
		to_user_id BIGINT NOT NULL,
		greeting VARCHAR(256) NOT NULL DEFAULT '',
		status TINYINT NOT NULL DEFAULT 0,
		handled_at TIMESTAMP NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS groups (
		group_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		group_name VARCHAR(64) NOT NULL,
		owner_id BIGINT NOT NULL,
		avatar_url VARCHAR(256),
		announcement VARCHAR(512),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS group_members (
		group_id BIGINT NOT NULL,
		user_id BIGINT NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'member',
		nickname_in_group VARCHAR(64) NOT NULL DEFAULT '',
		PRIMARY KEY (group_id, user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}
