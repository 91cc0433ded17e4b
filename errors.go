package journalDB

import (
	"errors"
	"fmt"

	"github.com/paranoidxc/JournalDB/face"
)

var (
	ErrInvalidArgument   = errors.New("INVALID ARGUMENT")
	ErrKeyIsNil          = fmt.Errorf("%w: THE KEY IS NIL", ErrInvalidArgument)
	ErrValueIsNil        = fmt.Errorf("%w: THE VALUE IS NIL", ErrInvalidArgument)
	ErrInvalidKeyLength  = fmt.Errorf("%w: %w", ErrInvalidArgument, face.ErrInvalidKeyLength)
	ErrValueTooLarge     = fmt.Errorf("%w: THE VALUE IS LARGER THAN 4GB", ErrInvalidArgument)
	ErrDuplicateKey      = errors.New("DUPLICATE KEY")
	ErrKeyNotFound       = errors.New("KEY NOT FOUND IN DATABASE")
	ErrValueCorrupted    = errors.New("VALUE CORRUPTED, DATA FILE IS SHORTER THAN THE INDEX SAYS")
	ErrRecoveryInvariant = errors.New("NON-CURRENT SEGMENT MUST BE FULL AND IN USE AFTER RECOVERY")
	ErrDatabaseIsUsing   = errors.New("THE DATABASE DIRECTORY IS USED BY ANOTHER PROCESS")
	ErrDBClosed          = errors.New("THE DATABASE IS CLOSED")
	ErrBackupDirIsEmpty  = errors.New("BACKUP DIRECTORY IS EMPTY")
	ErrInvalidOptions    = errors.New("INVALID OPTIONS")
)
