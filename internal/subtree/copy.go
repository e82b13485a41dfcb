package subtree

import (
	"fmt"
	"strings"
)

// copyCommands puts the command lines on the clipboard instead of running them.
// When the clipboard is unavailable the commands are printed for manual copying.
func (s *Service) copyCommands(lines ...string) {
	text := strings.Join(lines, " && ")
	if err := s.clipboard(text); err != nil {
		s.logger.Debug("clipboard unavailable", "err", err)
		s.out.Warning(fmt.Sprintf("Could not copy to the clipboard: %v", err))
		s.out.Command(text)
		return
	}
	s.out.Command(text)
	s.out.Success("Command copied to the clipboard")
}
